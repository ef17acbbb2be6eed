package branches

import "github.com/agentic-research/kinbranch/internal/genealogy"

// memberSet is the set of candidate xrefs of one request.
type memberSet map[string]struct{}

func newMemberSet(inds []*genealogy.Individual) memberSet {
	m := make(memberSet, len(inds))
	for _, ind := range inds {
		m.add(ind.XRef)
	}
	return m
}

// add inserts xref and reports whether it was new.
func (m memberSet) add(xref string) bool {
	if _, ok := m[xref]; ok {
		return false
	}
	m[xref] = struct{}{}
	return true
}

func (m memberSet) contains(xref string) bool {
	_, ok := m[xref]
	return ok
}
