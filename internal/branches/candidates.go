package branches

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/phonetic"
)

// CandidateSet is the ordered list of visible individuals carrying a
// surname: unique by xref, sorted by birth key with undated ones last.
type CandidateSet []*genealogy.Individual

// Loader finds the individuals of a tree that carry a surname.
type Loader struct {
	Store genealogy.Store
}

// Load searches the store by exact surname and, when enabled, by phonetic
// code. An empty surname yields an empty set.
func (l Loader) Load(ctx context.Context, tree, surname string, std, dm bool) (CandidateSet, error) {
	surname = strings.TrimSpace(surname)
	if surname == "" {
		return nil, nil
	}

	q := genealogy.SurnameQuery{Tree: tree, Surname: surname}
	if std {
		q.Std = phonetic.Split(phonetic.Russell(surname))
	}
	if dm {
		q.DM = phonetic.Split(phonetic.DaitchMokotoff(surname))
	}

	found, err := l.Store.SearchSurname(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load candidates for %q: %w", surname, err)
	}

	seen := newMemberSet(nil)
	out := make(CandidateSet, 0, len(found))
	for _, ind := range found {
		if !seen.add(ind.XRef) {
			continue
		}
		if !l.Store.Visible(ind) {
			continue
		}
		out = append(out, ind)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return dateLess(out[i].BirthKey, out[j].BirthKey)
	})
	return out, nil
}

// dateLess orders date sort keys ascending with unknown (0) keys last.
func dateLess(a, b int) bool {
	switch {
	case a == 0:
		return false
	case b == 0:
		return true
	default:
		return a < b
	}
}
