package branches

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentic-research/kinbranch/api"
	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/surname"
)

// DefaultMaxDepth is the descent depth used when Renderer.MaxDepth is 0.
const DefaultMaxDepth = 256

var pedigreeLabels = map[string]string{
	genealogy.PedigreeAdopted: "Adopted",
	genealogy.PedigreeFoster:  "Foster",
	genealogy.PedigreeSealing: "Sealing",
	genealogy.PedigreeRada:    "Rada",
}

// PedigreeLabel returns the display label of a non-birth linkage type, or
// "" for a birth link.
func PedigreeLabel(pedigree string) string {
	if pedigree == "" || pedigree == genealogy.PedigreeBirth {
		return ""
	}
	if label, ok := pedigreeLabels[pedigree]; ok {
		return label
	}
	return pedigree
}

// Renderer draws the descendants of an individual who carries Surname.
// A Renderer is read-only once built and may be shared across goroutines.
type Renderer struct {
	Store     genealogy.Store
	Surname   string
	Matcher   surname.Matcher
	Ancestors *AncestorMap
	// Linker is optional. Without one, ancestors are drawn unannotated.
	Linker   RelationshipLinker
	MaxDepth int

	// OnTruncate, when set, is called for every truncated node.
	OnTruncate func(ind *genealogy.Individual)
}

// Render returns the branch rooted at ind. parents is the family ind was
// reached from, nil for a patriarch.
func (r *Renderer) Render(ctx context.Context, ind *genealogy.Individual, parents *genealogy.Family) (*api.Node, error) {
	return r.render(ctx, ind, parents, make(map[string]bool), 0)
}

func (r *Renderer) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return DefaultMaxDepth
}

// render draws one node. path holds the xrefs of the node's ancestors
// within this branch.
func (r *Renderer) render(ctx context.Context, ind *genealogy.Individual, parents *genealogy.Family, path map[string]bool, depth int) (*api.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, ok := r.resolveName(ind)
	if !ok {
		return &api.Node{
			Kind:   api.KindSplit,
			Person: api.Person{XRef: ind.XRef, Sex: string(ind.Sex), Name: ind.FullName()},
		}, nil
	}

	node := &api.Node{Kind: api.KindPerson}
	if parents != nil {
		if ped, ok := ind.Pedigree(parents.XRef); ok {
			node.Pedigree = PedigreeLabel(ped)
		}
	}

	if depth > r.maxDepth() || path[ind.XRef] {
		node.Kind = api.KindTruncated
		node.Person = api.Person{XRef: ind.XRef, Sex: string(ind.Sex), Name: name.Full}
		if r.OnTruncate != nil {
			r.OnTruncate(ind)
		}
		return node, nil
	}

	person, err := r.person(ind, name.Full)
	if err != nil {
		return nil, err
	}
	node.Person = person

	fams, err := genealogy.SpouseFamilies(ctx, r.Store, ind)
	if err != nil {
		return nil, fmt.Errorf("spouse families of %s: %w", ind.XRef, err)
	}
	sort.SliceStable(fams, func(i, j int) bool {
		return dateLess(fams[i].MarriageKey, fams[j].MarriageKey)
	})

	path[ind.XRef] = true
	defer delete(path, ind.XRef)

	for _, fam := range fams {
		union, err := r.union(ctx, ind, fam, path, depth)
		if err != nil {
			return nil, err
		}
		node.Unions = append(node.Unions, union)
	}
	return node, nil
}

// resolveName returns the first name whose surname matches the target.
func (r *Renderer) resolveName(ind *genealogy.Individual) (genealogy.Name, bool) {
	for _, n := range ind.Names {
		if r.Matcher.Matches(surname.SortSurname(n.Sort), r.Surname) {
			return n, true
		}
	}
	return genealogy.Name{}, false
}

func (r *Renderer) union(ctx context.Context, ind *genealogy.Individual, fam *genealogy.Family, path map[string]bool, depth int) (api.Union, error) {
	u := api.Union{Family: fam.XRef, URL: fam.URL, Children: []*api.Node{}}

	spouse, err := genealogy.Spouse(ctx, r.Store, fam, ind)
	if err != nil {
		return u, fmt.Errorf("spouse in %s: %w", fam.XRef, err)
	}
	if spouse != nil && r.Store.Visible(spouse) {
		p, err := r.person(spouse, spouse.FullName())
		if err != nil {
			return u, err
		}
		u.Spouse = &p
		u.Marriage = marriage(fam)
	}

	kids, err := genealogy.Children(ctx, r.Store, fam)
	if err != nil {
		return u, fmt.Errorf("children of %s: %w", fam.XRef, err)
	}
	for _, kid := range kids {
		if !r.Store.Visible(kid) {
			continue
		}
		child, err := r.render(ctx, kid, fam, path, depth+1)
		if err != nil {
			return u, err
		}
		u.Children = append(u.Children, child)
	}
	return u, nil
}

func marriage(fam *genealogy.Family) *api.Marriage {
	switch {
	case fam.MarriageYear > 0:
		return &api.Marriage{Status: api.MarriageDated, Year: fam.MarriageYear, Date: fam.MarriageDate}
	case fam.Married:
		return &api.Marriage{Status: api.MarriageUndated}
	default:
		return &api.Marriage{Status: api.MarriageNotMarried}
	}
}

// person builds the display line of ind, with its Sosa annotation when
// ind is a direct ancestor of the requesting individual.
func (r *Renderer) person(ind *genealogy.Individual, name string) (api.Person, error) {
	p := api.Person{
		XRef:     ind.XRef,
		Sex:      string(ind.Sex),
		Name:     name,
		Lifespan: ind.Lifespan,
		URL:      ind.URL,
	}
	if r.Linker == nil {
		return p, nil
	}
	sosa, ok := r.Ancestors.SosaOf(ind)
	if !ok {
		return p, nil
	}
	chart, err := r.Linker.RelationshipURL(ind, r.Ancestors.Root())
	if err != nil {
		return p, err
	}
	p.Sosa = &api.Sosa{Number: sosa, Generation: Generation(sosa), ChartURL: chart}
	return p, nil
}
