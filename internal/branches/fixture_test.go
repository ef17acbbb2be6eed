package branches

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/phonetic"
)

const testTree = "t"

// treeBuilder assembles a MemoryStore dataset. Links are added to the
// stored records in place, so families can be declared after their members.
type treeBuilder struct {
	t     *testing.T
	store *genealogy.MemoryStore
	inds  map[string]*genealogy.Individual
}

func newTreeBuilder(t *testing.T) *treeBuilder {
	t.Helper()
	return &treeBuilder{
		t:     t,
		store: genealogy.NewMemoryStore(),
		inds:  make(map[string]*genealogy.Individual),
	}
}

func birthName(given, surn string) genealogy.Name {
	return genealogy.Name{
		Type:       genealogy.NameBirth,
		Sort:       surn + "," + given,
		Full:       given + " " + surn,
		Surn:       surn,
		Surname:    surn,
		SoundexStd: phonetic.Russell(surn),
		SoundexDM:  phonetic.DaitchMokotoff(surn),
	}
}

func (b *treeBuilder) indi(xref string, sex genealogy.Sex, given, surn string, birthKey int) *genealogy.Individual {
	b.t.Helper()
	ind := &genealogy.Individual{
		XRef:     xref,
		Tree:     testTree,
		Sex:      sex,
		Names:    []genealogy.Name{birthName(given, surn)},
		BirthKey: birthKey,
	}
	require.NoError(b.t, b.store.AddIndividual(ind))
	b.inds[xref] = ind
	return ind
}

func (b *treeBuilder) fam(xref, husband, wife string, children ...string) *genealogy.Family {
	b.t.Helper()
	f := &genealogy.Family{XRef: xref, Tree: testTree, Husband: husband, Wife: wife, Children: children}
	for _, p := range []string{husband, wife} {
		if p != "" {
			b.inds[p].SpouseFamilies = append(b.inds[p].SpouseFamilies, xref)
		}
	}
	for _, c := range children {
		b.inds[c].ChildLinks = append(b.inds[c].ChildLinks, genealogy.ChildLink{Family: xref})
	}
	require.NoError(b.t, b.store.AddFamily(f))
	return f
}

// smithJones is the canonical scenario: Adam Smith and Mary Brown with a
// son Carl Smith and a daughter Dora who is recorded as a Jones.
func smithJones(t *testing.T) *treeBuilder {
	b := newTreeBuilder(t)
	b.indi("A", genealogy.Male, "Adam", "Smith", 18500101)
	b.indi("B", genealogy.Female, "Mary", "Brown", 18550101)
	b.indi("C", genealogy.Male, "Carl", "Smith", 18800101)
	b.indi("D", genealogy.Female, "Dora", "Jones", 18820101)
	f := b.fam("F1", "A", "B", "C", "D")
	f.MarriageYear, f.MarriageDate, f.MarriageKey, f.Married = 1878, "12 MAY 1878", 18780512, true
	return b
}

func xrefsOf(inds []*genealogy.Individual) []string {
	out := make([]string, 0, len(inds))
	for _, i := range inds {
		out = append(out, i.XRef)
	}
	return out
}
