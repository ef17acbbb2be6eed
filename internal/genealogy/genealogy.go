// Package genealogy holds the minimal record model the branch engine reads:
// individuals, their names and parentage, and the families joining them.
//
// Records are owned by a Store. The engine never mutates them.
package genealogy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("record not found")

// Sex of an individual.
type Sex string

const (
	Male    Sex = "M"
	Female  Sex = "F"
	Unknown Sex = "U"
)

// ParseSex maps GEDCOM-style sex values; anything unrecognised is Unknown.
func ParseSex(s string) Sex {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M":
		return Male
	case "F":
		return Female
	default:
		return Unknown
	}
}

// Name types.
const (
	NameBirth   = "NAME"
	NameMarried = "_MARNM" // a spouse's surname applied to this person
	NameAlias   = "_AKA"
)

// Pedigree linkage types.
const (
	PedigreeBirth   = "birth"
	PedigreeAdopted = "adopted"
	PedigreeFoster  = "foster"
	PedigreeSealing = "sealing"
	PedigreeRada    = "rada"
)

// Name is one name record of an individual.
type Name struct {
	Type    string // NameBirth, NameMarried, ...
	Sort    string // "surname,given"
	Full    string // display form
	Surn    string // indexed surname, e.g. "Halen"
	Surname string // surname including prefixes, e.g. "van Halen"

	// Precomputed phonetic code sets of Surn, colon-delimited.
	SoundexStd string
	SoundexDM  string
}

// ChildLink is a link from an individual to a family in which they are a child.
type ChildLink struct {
	Family   string
	Pedigree string // empty or PedigreeBirth for a birth link
}

// Individual is a person record.
type Individual struct {
	XRef           string
	Tree           string
	Sex            Sex
	Names          []Name
	ChildLinks     []ChildLink // first link is the primary child-family
	SpouseFamilies []string
	BirthKey       int // sortable birth date, 0 when unknown
	Lifespan       string
	URL            string
	Private        bool
}

// FullName returns the display form of the first name record.
func (i *Individual) FullName() string {
	if len(i.Names) == 0 {
		return "@P.N. @N.N."
	}
	return i.Names[0].Full
}

// Pedigree returns the linkage type of the child link to family.
func (i *Individual) Pedigree(family string) (string, bool) {
	for _, l := range i.ChildLinks {
		if l.Family == family {
			return l.Pedigree, true
		}
	}
	return "", false
}

// Family is a parental union.
type Family struct {
	XRef         string
	Tree         string
	Husband      string
	Wife         string
	Children     []string
	MarriageYear int    // 0 when no usable year
	MarriageDate string // display form of the marriage date
	MarriageKey  int    // sortable marriage date, 0 when unknown
	Married      bool   // a marriage event exists
	URL          string
}

// Spouse returns the xref of the partner of xref in this family, or "".
func (f *Family) Spouse(xref string) string {
	switch xref {
	case f.Husband:
		return f.Wife
	case f.Wife:
		return f.Husband
	default:
		return ""
	}
}

// SurnameQuery selects individuals whose own names carry a surname.
// Married names never match.
type SurnameQuery struct {
	Tree    string
	Surname string   // matched against Surn and Surname, case-insensitively
	Std     []string // Russell codes; any overlap with SoundexStd matches
	DM      []string // Daitch-Mokotoff codes; any overlap with SoundexDM matches
}

// Store is a read-only record store.
// Implementations must be safe for concurrent reads.
type Store interface {
	Individual(ctx context.Context, tree, xref string) (*Individual, error)
	Family(ctx context.Context, tree, xref string) (*Family, error)
	// SearchSurname returns matching individuals in no particular order.
	// An individual may appear more than once.
	SearchSurname(ctx context.Context, q SurnameQuery) ([]*Individual, error)
	// Visible reports whether the individual may be shown.
	Visible(ind *Individual) bool
}

// Writer receives records during ingestion.
type Writer interface {
	AddIndividual(ind *Individual) error
	AddFamily(fam *Family) error
}

// ChildFamily returns the primary family in which ind is a child, or nil.
func ChildFamily(ctx context.Context, s Store, ind *Individual) (*Family, error) {
	if len(ind.ChildLinks) == 0 {
		return nil, nil
	}
	return s.Family(ctx, ind.Tree, ind.ChildLinks[0].Family)
}

// ChildFamilies returns every family in which ind is a child.
func ChildFamilies(ctx context.Context, s Store, ind *Individual) ([]*Family, error) {
	fams := make([]*Family, 0, len(ind.ChildLinks))
	for _, l := range ind.ChildLinks {
		f, err := s.Family(ctx, ind.Tree, l.Family)
		if err != nil {
			return nil, err
		}
		fams = append(fams, f)
	}
	return fams, nil
}

// SpouseFamilies returns the families in which ind is a parent, in record order.
func SpouseFamilies(ctx context.Context, s Store, ind *Individual) ([]*Family, error) {
	fams := make([]*Family, 0, len(ind.SpouseFamilies))
	for _, xref := range ind.SpouseFamilies {
		f, err := s.Family(ctx, ind.Tree, xref)
		if err != nil {
			return nil, err
		}
		fams = append(fams, f)
	}
	return fams, nil
}

// Children returns the children of fam in record order.
func Children(ctx context.Context, s Store, fam *Family) ([]*Individual, error) {
	kids := make([]*Individual, 0, len(fam.Children))
	for _, xref := range fam.Children {
		c, err := s.Individual(ctx, fam.Tree, xref)
		if err != nil {
			return nil, err
		}
		kids = append(kids, c)
	}
	return kids, nil
}

// Parents returns the husband and wife of fam; either may be nil.
func Parents(ctx context.Context, s Store, fam *Family) (husband, wife *Individual, err error) {
	if fam.Husband != "" {
		if husband, err = s.Individual(ctx, fam.Tree, fam.Husband); err != nil {
			return nil, nil, err
		}
	}
	if fam.Wife != "" {
		if wife, err = s.Individual(ctx, fam.Tree, fam.Wife); err != nil {
			return nil, nil, err
		}
	}
	return husband, wife, nil
}

// Spouse returns the partner of ind in fam, or nil.
func Spouse(ctx context.Context, s Store, fam *Family, ind *Individual) (*Individual, error) {
	xref := fam.Spouse(ind.XRef)
	if xref == "" {
		return nil, nil
	}
	return s.Individual(ctx, fam.Tree, xref)
}

func notFound(kind, tree, xref string) error {
	return fmt.Errorf("%s %s/%s: %w", kind, tree, xref, ErrNotFound)
}
