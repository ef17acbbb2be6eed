// Package surname decides whether two surnames belong to the same family.
package surname

import (
	"strings"

	"github.com/agentic-research/kinbranch/internal/phonetic"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer folds case and strips diacritics using the collation rules
// of a language, so that "İnce" and "ince" compare equal under Turkish.
type Normalizer struct {
	tag language.Tag
}

// NewNormalizer returns a Normalizer for the given BCP 47 tag.
// An empty tag selects language.Und.
func NewNormalizer(tag string) (Normalizer, error) {
	if tag == "" {
		return Normalizer{tag: language.Und}, nil
	}
	t, err := language.Parse(tag)
	if err != nil {
		return Normalizer{}, err
	}
	return Normalizer{tag: t}, nil
}

// Normalize returns s lower-cased for the normalizer's language with
// diacritics removed.
func (n Normalizer) Normalize(s string) string {
	// cases.Caser is stateful, so build one per call.
	return phonetic.StripMarks(cases.Lower(n.tag).String(strings.TrimSpace(s)))
}

// Matcher compares surnames. The zero value matches by substring only.
type Matcher struct {
	Std        bool // compare Russell codes
	DM         bool // compare Daitch-Mokotoff codes
	Normalizer Normalizer
}

// Matches reports whether a and b should be treated as the same surname.
//
// Phonetic comparisons run first when enabled. Otherwise the names match
// when either normalized name contains the other, so "Halen" matches
// "Van Halen". The containment test is symmetric, which also lets short
// names match inside unrelated longer ones ("Lee" in "Leeson").
func (m Matcher) Matches(a, b string) bool {
	if m.Std && phonetic.Compare(phonetic.Russell(a), phonetic.Russell(b)) {
		return true
	}
	if m.DM && phonetic.Compare(phonetic.DaitchMokotoff(a), phonetic.DaitchMokotoff(b)) {
		return true
	}

	na := m.Normalizer.Normalize(a)
	nb := m.Normalizer.Normalize(b)
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// SortSurname returns the surname part of a "surname,given" sort key.
func SortSurname(sort string) string {
	surn, _, _ := strings.Cut(sort, ",")
	return surn
}
