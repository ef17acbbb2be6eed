package genealogy

import (
	"context"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/kinbranch/internal/phonetic"
)

type recordKey struct {
	tree string
	xref string
}

// MemoryStore is an in-memory Store. It also implements Writer, so the
// ingestion pipeline can load datasets straight into it.
type MemoryStore struct {
	mu          sync.RWMutex
	individuals map[recordKey]*Individual
	families    map[recordKey]*Family

	// Roaring bitmap indexes: key → set of internal individual IDs.
	// Surname keys are upper-cased; code keys are single phonetic codes.
	surnames map[string]*roaring.Bitmap
	stdCodes map[string]*roaring.Bitmap
	dmCodes  map[string]*roaring.Bitmap

	indiIntID   map[recordKey]uint32 // individual → internal bitmap ID
	intToIndi   []*Individual        // reverse: uint32 → individual
	nextIntID   uint32               // monotonic counter
	ShowPrivate bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		individuals: make(map[recordKey]*Individual),
		families:    make(map[recordKey]*Family),
		surnames:    make(map[string]*roaring.Bitmap),
		stdCodes:    make(map[string]*roaring.Bitmap),
		dmCodes:     make(map[string]*roaring.Bitmap),
		indiIntID:   make(map[recordKey]uint32),
	}
}

// AddIndividual implements Writer. Re-adding an xref replaces the record
// but keeps index entries of the earlier version.
func (s *MemoryStore) AddIndividual(ind *Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{ind.Tree, ind.XRef}
	s.individuals[key] = ind

	intID, ok := s.indiIntID[key]
	if !ok {
		intID = s.nextIntID
		s.nextIntID++
		s.indiIntID[key] = intID
		s.intToIndi = append(s.intToIndi, ind)
	} else {
		s.intToIndi[intID] = ind
	}
	s.indexNames(intID, ind)
	return nil
}

// indexNames registers the individual's own (non-married) names.
// Must be called with s.mu held.
func (s *MemoryStore) indexNames(intID uint32, ind *Individual) {
	for _, n := range ind.Names {
		if n.Type == NameMarried {
			continue
		}
		for _, sn := range []string{n.Surn, n.Surname} {
			if sn != "" {
				addToIndex(s.surnames, indexKey(ind.Tree, strings.ToUpper(sn)), intID)
			}
		}
		for _, c := range phonetic.Split(n.SoundexStd) {
			addToIndex(s.stdCodes, indexKey(ind.Tree, c), intID)
		}
		for _, c := range phonetic.Split(n.SoundexDM) {
			addToIndex(s.dmCodes, indexKey(ind.Tree, c), intID)
		}
	}
}

func indexKey(tree, term string) string {
	return tree + "\x00" + term
}

func addToIndex(idx map[string]*roaring.Bitmap, key string, id uint32) {
	bm, ok := idx[key]
	if !ok {
		bm = roaring.New()
		idx[key] = bm
	}
	bm.Add(id)
}

// AddFamily implements Writer.
func (s *MemoryStore) AddFamily(fam *Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[recordKey{fam.Tree, fam.XRef}] = fam
	return nil
}

// Individual implements Store.
func (s *MemoryStore) Individual(ctx context.Context, tree, xref string) (*Individual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ind, ok := s.individuals[recordKey{tree, xref}]
	if !ok {
		return nil, notFound("individual", tree, xref)
	}
	return ind, nil
}

// Family implements Store.
func (s *MemoryStore) Family(ctx context.Context, tree, xref string) (*Family, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	fam, ok := s.families[recordKey{tree, xref}]
	if !ok {
		return nil, notFound("family", tree, xref)
	}
	return fam, nil
}

// SearchSurname implements Store. Matching bitmaps are OR-ed together, so
// every individual is returned once, in insertion order.
func (s *MemoryStore) SearchSurname(ctx context.Context, q SurnameQuery) ([]*Individual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := roaring.New()
	if bm, ok := s.surnames[indexKey(q.Tree, strings.ToUpper(q.Surname))]; ok {
		hits.Or(bm)
	}
	for _, c := range q.Std {
		if bm, ok := s.stdCodes[indexKey(q.Tree, c)]; ok {
			hits.Or(bm)
		}
	}
	for _, c := range q.DM {
		if bm, ok := s.dmCodes[indexKey(q.Tree, c)]; ok {
			hits.Or(bm)
		}
	}

	out := make([]*Individual, 0, hits.GetCardinality())
	it := hits.Iterator()
	for it.HasNext() {
		out = append(out, s.intToIndi[it.Next()])
	}
	return out, nil
}

// Visible implements Store.
func (s *MemoryStore) Visible(ind *Individual) bool {
	return s.ShowPrivate || !ind.Private
}

// Len returns the number of individuals and families held.
func (s *MemoryStore) Len() (individuals, families int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.individuals), len(s.families)
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Writer = (*MemoryStore)(nil)
)
