package branches

import (
	"context"

	"github.com/agentic-research/kinbranch/internal/genealogy"
)

// FindPatriarchs returns the candidates with no parent among the
// candidates, in candidate order. Every child-family of a candidate is
// checked, not just the primary one, so a matched child is always drawn
// beneath its matched parent rather than as a branch of its own.
func FindPatriarchs(ctx context.Context, store genealogy.Store, candidates CandidateSet) ([]*genealogy.Individual, error) {
	members := newMemberSet(candidates)

	var out []*genealogy.Individual
	for _, ind := range candidates {
		fams, err := genealogy.ChildFamilies(ctx, store, ind)
		if err != nil {
			return nil, err
		}
		if !hasParentIn(fams, members) {
			out = append(out, ind)
		}
	}
	return out, nil
}

func hasParentIn(fams []*genealogy.Family, members memberSet) bool {
	for _, f := range fams {
		if (f.Husband != "" && members.contains(f.Husband)) ||
			(f.Wife != "" && members.contains(f.Wife)) {
			return true
		}
	}
	return false
}
