package branches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kinbranch/internal/genealogy"
)

func TestFindPatriarchs(t *testing.T) {
	ctx := context.Background()

	t.Run("shared parent", func(t *testing.T) {
		b := newTreeBuilder(t)
		b.indi("P", genealogy.Male, "Adam", "Smith", 18500101)
		b.indi("K1", genealogy.Male, "Carl", "Smith", 18800101)
		b.indi("K2", genealogy.Female, "Ann", "Smith", 18820101)
		b.fam("F1", "P", "", "K1", "K2")

		cands, err := Loader{Store: b.store}.Load(ctx, testTree, "Smith", false, false)
		require.NoError(t, err)
		got, err := FindPatriarchs(ctx, b.store, cands)
		require.NoError(t, err)
		assert.Equal(t, []string{"P"}, xrefsOf(got))
	})

	t.Run("unrelated lineages keep order", func(t *testing.T) {
		b := newTreeBuilder(t)
		b.indi("X", genealogy.Male, "Sam", "Smith", 19000101)
		b.indi("Y", genealogy.Male, "Tom", "Smith", 18000101)
		b.indi("Z", genealogy.Male, "Ned", "Smith", 0)

		cands, err := Loader{Store: b.store}.Load(ctx, testTree, "Smith", false, false)
		require.NoError(t, err)
		got, err := FindPatriarchs(ctx, b.store, cands)
		require.NoError(t, err)
		assert.Equal(t, []string{"Y", "X", "Z"}, xrefsOf(got))
	})

	t.Run("secondary child family", func(t *testing.T) {
		// K is adopted into P's family; the birth family is unrelated.
		b := newTreeBuilder(t)
		b.indi("P", genealogy.Male, "Adam", "Smith", 18500101)
		b.indi("O", genealogy.Male, "Otto", "Weber", 18500101)
		b.indi("K", genealogy.Male, "Karl", "Smith", 18800101)
		b.fam("F1", "O", "", "K")
		b.fam("F2", "P", "", "K")

		cands, err := Loader{Store: b.store}.Load(ctx, testTree, "Smith", false, false)
		require.NoError(t, err)
		got, err := FindPatriarchs(ctx, b.store, cands)
		require.NoError(t, err)
		assert.Equal(t, []string{"P"}, xrefsOf(got))
	})

	t.Run("never returns a child of a candidate", func(t *testing.T) {
		b := smithJones(t)
		cands := CandidateSet{b.inds["A"], b.inds["B"], b.inds["C"], b.inds["D"]}
		got, err := FindPatriarchs(ctx, b.store, cands)
		require.NoError(t, err)
		members := newMemberSet(cands)
		for _, p := range got {
			fams, err := genealogy.ChildFamilies(ctx, b.store, p)
			require.NoError(t, err)
			assert.False(t, hasParentIn(fams, members), "%s has a candidate parent", p.XRef)
		}
		assert.Equal(t, []string{"A", "B"}, xrefsOf(got))
	})

	t.Run("empty", func(t *testing.T) {
		got, err := FindPatriarchs(ctx, genealogy.NewMemoryStore(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMemberSet(t *testing.T) {
	m := newMemberSet(nil)
	assert.True(t, m.add("I1"))
	assert.True(t, m.add("I2"))
	assert.False(t, m.add("I1"))
	assert.True(t, m.contains("I2"))
	assert.False(t, m.contains("I3"))
	assert.Len(t, m, 2)
}
