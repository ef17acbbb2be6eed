package branches

import (
	"context"
	"math/bits"

	"github.com/agentic-research/kinbranch/internal/genealogy"
)

// MaxAncestorGenerations bounds the ancestor walk. Sosa numbers of
// generation 63 would overflow int64.
const MaxAncestorGenerations = 62

// Ancestor is one entry of an AncestorMap.
type Ancestor struct {
	Sosa       int64
	Individual *genealogy.Individual
}

// AncestorMap indexes direct-line ancestors by Sosa-Stradonitz number.
// Entries keep insertion order, which is the order the walk expanded them.
type AncestorMap struct {
	entries []Ancestor
	bySosa  map[int64]*genealogy.Individual
	byXRef  map[string]int64 // first Sosa number an individual was found at
}

func newAncestorMap() *AncestorMap {
	return &AncestorMap{
		bySosa: make(map[int64]*genealogy.Individual),
		byXRef: make(map[string]int64),
	}
}

func (m *AncestorMap) insert(sosa int64, ind *genealogy.Individual) {
	m.entries = append(m.entries, Ancestor{Sosa: sosa, Individual: ind})
	m.bySosa[sosa] = ind
	if _, seen := m.byXRef[ind.XRef]; !seen {
		m.byXRef[ind.XRef] = sosa
	}
}

// Len returns the number of occupied positions.
func (m *AncestorMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the occupied positions in insertion order.
func (m *AncestorMap) Entries() []Ancestor {
	if m == nil {
		return nil
	}
	return m.entries
}

// Get returns the individual at a Sosa position.
func (m *AncestorMap) Get(sosa int64) (*genealogy.Individual, bool) {
	if m == nil {
		return nil, false
	}
	ind, ok := m.bySosa[sosa]
	return ind, ok
}

// Root returns the individual at position 1, or nil for an empty map.
func (m *AncestorMap) Root() *genealogy.Individual {
	ind, _ := m.Get(1)
	return ind
}

// SosaOf is the inverse lookup. With pedigree collapse an individual can
// occupy several positions; the first one inserted wins.
func (m *AncestorMap) SosaOf(ind *genealogy.Individual) (int64, bool) {
	if m == nil || ind == nil {
		return 0, false
	}
	sosa, ok := m.byXRef[ind.XRef]
	return sosa, ok
}

// Generation converts a Sosa number to a generation: 1 for the root,
// 2 for parents, 3 for grandparents.
func Generation(sosa int64) int {
	if sosa < 1 {
		return 0
	}
	return bits.Len64(uint64(sosa))
}

// descendsFrom reports whether xref occupies one of the positions below
// sosa on its own line (sosa/2, sosa/4, ... 1).
func (m *AncestorMap) descendsFrom(sosa int64, xref string) bool {
	for n := sosa / 2; n >= 1; n /= 2 {
		if ind, ok := m.bySosa[n]; ok && ind.XRef == xref {
			return true
		}
	}
	return false
}

// BuildAncestorMap walks the direct-line ancestors of root.
//
// Positions are expanded in the order they were inserted: each step takes
// the next unexpanded position n, looks up its primary child-family and
// inserts the husband at 2n and the wife at 2n+1. A position whose
// individual is already its own descendant is recorded but not expanded,
// so cyclic records terminate while ordinary pedigree collapse is kept.
func BuildAncestorMap(ctx context.Context, store genealogy.Store, root *genealogy.Individual) (*AncestorMap, error) {
	m := newAncestorMap()
	if root == nil {
		return m, nil
	}
	m.insert(1, root)

	for next := 0; next < len(m.entries); next++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := m.entries[next]
		if Generation(cur.Sosa) >= MaxAncestorGenerations || m.descendsFrom(cur.Sosa, cur.Individual.XRef) {
			continue
		}

		fam, err := genealogy.ChildFamily(ctx, store, cur.Individual)
		if err != nil {
			return nil, err
		}
		if fam == nil {
			continue
		}
		husband, wife, err := genealogy.Parents(ctx, store, fam)
		if err != nil {
			return nil, err
		}
		if husband != nil {
			m.insert(cur.Sosa*2, husband)
		}
		if wife != nil {
			m.insert(cur.Sosa*2+1, wife)
		}
	}
	return m, nil
}
