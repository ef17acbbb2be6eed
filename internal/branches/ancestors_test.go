package branches

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/kinbranch/internal/genealogy"
)

func TestBuildAncestorMap_NoParents(t *testing.T) {
	b := newTreeBuilder(t)
	root := b.indi("I1", genealogy.Male, "Adam", "Smith", 0)

	m, err := BuildAncestorMap(context.Background(), b.store, root)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Same(t, root, got)
	assert.Same(t, root, m.Root())
}

func TestBuildAncestorMap_NilRoot(t *testing.T) {
	b := newTreeBuilder(t)
	m, err := BuildAncestorMap(context.Background(), b.store, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Root())
}

func TestBuildAncestorMap_Generations(t *testing.T) {
	b := newTreeBuilder(t)
	b.indi("ME", genealogy.Female, "Eve", "Smith", 0)
	b.indi("FA", genealogy.Male, "Carl", "Smith", 0)
	b.indi("MO", genealogy.Female, "Ida", "Brown", 0)
	b.indi("GF", genealogy.Male, "Adam", "Smith", 0)
	b.indi("GM2", genealogy.Female, "Rose", "Green", 0) // mother's mother; father unknown
	b.fam("F1", "FA", "MO", "ME")
	b.fam("F2", "GF", "", "FA")
	b.fam("F3", "", "GM2", "MO")

	m, err := BuildAncestorMap(context.Background(), b.store, b.inds["ME"])
	require.NoError(t, err)

	want := map[int64]string{1: "ME", 2: "FA", 3: "MO", 4: "GF", 7: "GM2"}
	require.Equal(t, len(want), m.Len())
	for sosa, xref := range want {
		ind, ok := m.Get(sosa)
		require.True(t, ok, "sosa %d", sosa)
		assert.Equal(t, xref, ind.XRef, "sosa %d", sosa)
	}

	// Insertion order follows the walk, not numeric order.
	var order []int64
	for _, e := range m.Entries() {
		order = append(order, e.Sosa)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 7}, order)

	// Every occupied n > 1 has its child at n/2, and the occupant is the
	// father (even) or mother (odd) of that child's primary family.
	ctx := context.Background()
	for _, e := range m.Entries() {
		if e.Sosa == 1 {
			continue
		}
		child, ok := m.Get(e.Sosa / 2)
		require.True(t, ok, "sosa %d has no child at %d", e.Sosa, e.Sosa/2)
		fam, err := genealogy.ChildFamily(ctx, b.store, child)
		require.NoError(t, err)
		require.NotNil(t, fam)
		if e.Sosa%2 == 0 {
			assert.Equal(t, fam.Husband, e.Individual.XRef)
		} else {
			assert.Equal(t, fam.Wife, e.Individual.XRef)
		}
	}
}

func TestBuildAncestorMap_PedigreeCollapse(t *testing.T) {
	// Cousins marry: both parents of ME descend from GF.
	b := newTreeBuilder(t)
	b.indi("ME", genealogy.Male, "Tom", "Smith", 0)
	b.indi("FA", genealogy.Male, "Carl", "Smith", 0)
	b.indi("MO", genealogy.Female, "Ann", "Smith", 0)
	b.indi("GF", genealogy.Male, "Adam", "Smith", 0)
	b.fam("F1", "FA", "MO", "ME")
	b.fam("F2", "GF", "", "FA", "MO")

	m, err := BuildAncestorMap(context.Background(), b.store, b.inds["ME"])
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())

	sosa, ok := m.SosaOf(b.inds["GF"])
	require.True(t, ok)
	assert.Equal(t, int64(4), sosa, "first inserted position wins")
	gf6, ok := m.Get(6)
	require.True(t, ok)
	assert.Equal(t, "GF", gf6.XRef)
}

func TestBuildAncestorMap_CycleTerminates(t *testing.T) {
	// Malformed: I1 is recorded as their own father.
	b := newTreeBuilder(t)
	b.indi("I1", genealogy.Male, "Adam", "Smith", 0)
	b.fam("F1", "I1", "", "I1")

	m, err := BuildAncestorMap(context.Background(), b.store, b.inds["I1"])
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	sosa, ok := m.SosaOf(b.inds["I1"])
	require.True(t, ok)
	assert.Equal(t, int64(1), sosa)
}

func TestBuildAncestorMap_TwoParentCycleTerminates(t *testing.T) {
	// Malformed: both partners of F1 are also recorded as its children,
	// so every generation would otherwise double.
	b := newTreeBuilder(t)
	b.indi("R", genealogy.Male, "Rob", "Smith", 0)
	b.indi("H", genealogy.Male, "Hal", "Smith", 0)
	b.indi("W", genealogy.Female, "Wen", "Smith", 0)
	b.fam("F1", "H", "W", "R", "H", "W")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := BuildAncestorMap(ctx, b.store, b.inds["R"])
	require.NoError(t, err)

	var got []int64
	for _, e := range m.Entries() {
		got = append(got, e.Sosa)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 10, 11, 12, 13}, got)

	sosa, ok := m.SosaOf(b.inds["W"])
	require.True(t, ok)
	assert.Equal(t, int64(3), sosa)
}

func TestBuildAncestorMap_GenerationCap(t *testing.T) {
	b := newTreeBuilder(t)
	const depth = 70
	for i := 0; i <= depth; i++ {
		b.indi(fmt.Sprintf("I%d", i), genealogy.Male, "Gen", "Smith", 0)
	}
	for i := 0; i < depth; i++ {
		b.fam(fmt.Sprintf("F%d", i), fmt.Sprintf("I%d", i+1), "", fmt.Sprintf("I%d", i))
	}

	m, err := BuildAncestorMap(context.Background(), b.store, b.inds["I0"])
	require.NoError(t, err)
	assert.Equal(t, MaxAncestorGenerations, m.Len())
	last := m.Entries()[m.Len()-1]
	assert.Equal(t, MaxAncestorGenerations, Generation(last.Sosa))
}

func TestBuildAncestorMap_DanglingFamily(t *testing.T) {
	s := genealogy.NewMemoryStore()
	root := &genealogy.Individual{XRef: "I1", Tree: testTree, ChildLinks: []genealogy.ChildLink{{Family: "F404"}}}
	require.NoError(t, s.AddIndividual(root))

	_, err := BuildAncestorMap(context.Background(), s, root)
	assert.True(t, errors.Is(err, genealogy.ErrNotFound), "err = %v", err)
}

func TestGeneration(t *testing.T) {
	tests := []struct {
		sosa int64
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{7, 3},
		{8, 4},
		{1 << 61, 62},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Generation(tt.sosa), "Generation(%d)", tt.sosa)
	}
}
