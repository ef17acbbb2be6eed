package ingest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/phonetic"
)

// dataset is one decoded tree, in file order.
type dataset struct {
	tree        string
	individuals []*genealogy.Individual
	families    []*genealogy.Family

	indiByXRef map[string]*genealogy.Individual
	famByXRef  map[string]*genealogy.Family
}

func (im *Importer) decode(root any, defaultTree string) (*dataset, error) {
	ds := &dataset{
		tree:       defaultTree,
		indiByXRef: make(map[string]*genealogy.Individual),
		famByXRef:  make(map[string]*genealogy.Family),
	}
	if tree, err := im.walker.Query(root, "$.tree"); err != nil {
		return nil, err
	} else if len(tree) == 1 {
		if s, ok := tree[0].Context().(string); ok && s != "" {
			ds.tree = s
		}
	}

	indis, err := im.walker.Query(root, "$.individuals[*]")
	if err != nil {
		return nil, err
	}
	for i, m := range indis {
		ind, err := im.decodeIndividual(ds.tree, m)
		if err != nil {
			return nil, fmt.Errorf("individual #%d: %w", i, err)
		}
		if _, dup := ds.indiByXRef[ind.XRef]; dup {
			return nil, fmt.Errorf("%w: duplicate individual %s", ErrInvalidDataset, ind.XRef)
		}
		ds.indiByXRef[ind.XRef] = ind
		ds.individuals = append(ds.individuals, ind)
	}

	fams, err := im.walker.Query(root, "$.families[*]")
	if err != nil {
		return nil, err
	}
	for i, m := range fams {
		fam, err := im.decodeFamily(ds.tree, m)
		if err != nil {
			return nil, fmt.Errorf("family #%d: %w", i, err)
		}
		if _, dup := ds.famByXRef[fam.XRef]; dup {
			return nil, fmt.Errorf("%w: duplicate family %s", ErrInvalidDataset, fam.XRef)
		}
		ds.famByXRef[fam.XRef] = fam
		ds.families = append(ds.families, fam)
	}
	return ds, nil
}

func (im *Importer) decodeIndividual(tree string, m Match) (*genealogy.Individual, error) {
	xref := m.String("xref")
	if xref == "" {
		return nil, fmt.Errorf("%w: missing xref", ErrInvalidDataset)
	}
	ind := &genealogy.Individual{
		XRef:     xref,
		Tree:     tree,
		Sex:      genealogy.ParseSex(m.String("sex")),
		Lifespan: lifespan(m.String("birth"), m.String("death")),
		URL:      m.String("url"),
		Private:  m.Bool("private"),
	}
	if b, ok := parseDate(m.String("birth")); ok {
		ind.BirthKey = b.Key()
	}

	names, err := im.walker.Query(m.Context(), "$.names[*]")
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		ind.Names = append(ind.Names, buildName(n))
	}

	famc, err := im.walker.Query(m.Context(), "$.famc[*]")
	if err != nil {
		return nil, err
	}
	for _, l := range famc {
		// Either "F1" or {"family": "F1", "pedigree": "adopted"}.
		if s, ok := l.Context().(string); ok {
			ind.ChildLinks = append(ind.ChildLinks, genealogy.ChildLink{Family: s})
			continue
		}
		link := genealogy.ChildLink{
			Family:   l.String("family"),
			Pedigree: strings.ToLower(l.String("pedigree")),
		}
		if link.Family == "" {
			return nil, fmt.Errorf("%w: %s has a child link without family", ErrInvalidDataset, xref)
		}
		ind.ChildLinks = append(ind.ChildLinks, link)
	}

	fams, err := im.walker.Query(m.Context(), "$.fams[*]")
	if err != nil {
		return nil, err
	}
	for _, f := range fams {
		if s, ok := f.Context().(string); ok && s != "" {
			ind.SpouseFamilies = append(ind.SpouseFamilies, s)
		}
	}
	return ind, nil
}

func (im *Importer) decodeFamily(tree string, m Match) (*genealogy.Family, error) {
	xref := m.String("xref")
	if xref == "" {
		return nil, fmt.Errorf("%w: missing xref", ErrInvalidDataset)
	}
	fam := &genealogy.Family{
		XRef:    xref,
		Tree:    tree,
		Husband: m.String("husband"),
		Wife:    m.String("wife"),
		URL:     m.String("url"),
	}

	children, err := im.walker.Query(m.Context(), "$.children[*]")
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if s, ok := c.Context().(string); ok && s != "" {
			fam.Children = append(fam.Children, s)
		}
	}

	// "marriage": {} records an undated marriage.
	if m.Has("marriage") {
		marr, err := im.walker.Query(m.Context(), "$.marriage")
		if err != nil {
			return nil, err
		}
		if len(marr) == 1 && marr[0].Context() != nil {
			fam.Married = true
			fam.MarriageDate = marr[0].String("date")
			if d, ok := parseDate(fam.MarriageDate); ok {
				fam.MarriageYear = d.Year
				fam.MarriageKey = d.Key()
			}
		}
	}
	return fam, nil
}

// buildName derives the indexed forms of a dataset name.
func buildName(m Match) genealogy.Name {
	given := strings.TrimSpace(m.String("given"))
	surn := strings.TrimSpace(m.String("surname"))
	prefix := strings.TrimSpace(m.String("prefix"))

	n := genealogy.Name{
		Type:    m.String("type"),
		Surn:    surn,
		Surname: strings.TrimSpace(prefix + " " + surn),
	}
	if n.Type == "" {
		n.Type = genealogy.NameBirth
	}

	sortSurn, sortGiven := surn, given
	if sortSurn == "" {
		sortSurn = "@N.N."
	}
	if sortGiven == "" {
		sortGiven = "@P.N."
	}
	n.Sort = sortSurn + "," + sortGiven

	n.Full = m.String("full")
	if n.Full == "" {
		displaySurname := n.Surname
		if displaySurname == "" {
			displaySurname = "@N.N."
		}
		n.Full = sortGiven + " " + displaySurname
	}

	n.SoundexStd = phonetic.Russell(surn)
	n.SoundexDM = phonetic.DaitchMokotoff(surn)
	return n
}

// reconcile adds the missing direction of every family link.
func (ds *dataset) reconcile() {
	for _, fam := range ds.families {
		for _, p := range []string{fam.Husband, fam.Wife} {
			if ind, ok := ds.indiByXRef[p]; ok && !slices.Contains(ind.SpouseFamilies, fam.XRef) {
				ind.SpouseFamilies = append(ind.SpouseFamilies, fam.XRef)
			}
		}
		for _, c := range fam.Children {
			if ind, ok := ds.indiByXRef[c]; ok {
				if _, linked := ind.Pedigree(fam.XRef); !linked {
					ind.ChildLinks = append(ind.ChildLinks, genealogy.ChildLink{Family: fam.XRef})
				}
			}
		}
	}

	for _, ind := range ds.individuals {
		for _, l := range ind.ChildLinks {
			if fam, ok := ds.famByXRef[l.Family]; ok && !slices.Contains(fam.Children, ind.XRef) {
				fam.Children = append(fam.Children, ind.XRef)
			}
		}
		for _, f := range ind.SpouseFamilies {
			fam, ok := ds.famByXRef[f]
			if !ok || fam.Husband == ind.XRef || fam.Wife == ind.XRef {
				continue
			}
			switch {
			case fam.Husband == "" && ind.Sex != genealogy.Female:
				fam.Husband = ind.XRef
			case fam.Wife == "" && ind.Sex != genealogy.Male:
				fam.Wife = ind.XRef
			}
		}
	}
}

// validate rejects references to records the dataset does not contain.
// A store with dangling links would fail every render touching them.
func (ds *dataset) validate() error {
	for _, ind := range ds.individuals {
		for _, l := range ind.ChildLinks {
			if _, ok := ds.famByXRef[l.Family]; !ok {
				return fmt.Errorf("%w: %s is a child of unknown family %s", ErrInvalidDataset, ind.XRef, l.Family)
			}
		}
		for _, f := range ind.SpouseFamilies {
			fam, ok := ds.famByXRef[f]
			if !ok {
				return fmt.Errorf("%w: %s is a spouse in unknown family %s", ErrInvalidDataset, ind.XRef, f)
			}
			if fam.Husband != ind.XRef && fam.Wife != ind.XRef {
				return fmt.Errorf("%w: %s is not a partner of family %s", ErrInvalidDataset, ind.XRef, f)
			}
		}
	}
	for _, fam := range ds.families {
		for _, p := range []string{fam.Husband, fam.Wife} {
			if _, ok := ds.indiByXRef[p]; p != "" && !ok {
				return fmt.Errorf("%w: family %s has unknown partner %s", ErrInvalidDataset, fam.XRef, p)
			}
		}
		for _, c := range fam.Children {
			if _, ok := ds.indiByXRef[c]; !ok {
				return fmt.Errorf("%w: family %s has unknown child %s", ErrInvalidDataset, fam.XRef, c)
			}
		}
	}
	return nil
}
