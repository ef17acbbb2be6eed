// Package phonetic derives sound-alike keys for surnames.
//
// Two independent coders are provided: a Russell-style soundex and a
// Daitch-Mokotoff soundex. Both return a colon-delimited set of codes,
// because one spelling may have several valid pronunciations. Callers
// must treat the result as "matches if any code matches", never as a
// single key.
package phonetic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Algorithm selects a phonetic coder.
type Algorithm int

const (
	// Std is the Russell-style four character soundex.
	Std Algorithm = iota
	// DM is the six digit Daitch-Mokotoff soundex.
	DM
)

func (a Algorithm) String() string {
	switch a {
	case Std:
		return "std"
	case DM:
		return "dm"
	default:
		return "unknown"
	}
}

// Separator joins the codes of a code set.
const Separator = ":"

// Code encodes name with the given algorithm.
// It returns "" when nothing in name can be encoded.
func Code(name string, alg Algorithm) string {
	switch alg {
	case Std:
		return Russell(name)
	case DM:
		return DaitchMokotoff(name)
	default:
		return ""
	}
}

// Split breaks a colon-delimited code set into its codes.
func Split(codes string) []string {
	if codes == "" {
		return nil
	}
	return strings.Split(codes, Separator)
}

// Compare reports whether two code sets share at least one code.
// Empty code sets never match.
func Compare(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	seen := make(map[string]struct{})
	for _, c := range Split(a) {
		seen[c] = struct{}{}
	}
	for _, c := range Split(b) {
		if _, ok := seen[c]; ok {
			return true
		}
	}
	return false
}

// Letters that do not decompose under NFD.
var specialLetters = strings.NewReplacer(
	"ß", "SS", "ẞ", "SS",
	"Æ", "AE", "æ", "AE",
	"Œ", "OE", "œ", "OE",
	"Ø", "O", "ø", "O",
	"Ł", "L", "ł", "L",
	"Đ", "D", "đ", "D",
	"Þ", "TH", "þ", "TH",
)

// StripMarks removes combining diacritical marks, so "Müller" becomes
// "Muller". Letters without a decomposition are left untouched.
func StripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// words upper-cases and folds name to plain A-Z words.
func words(name string) []string {
	folded := strings.ToUpper(StripMarks(specialLetters.Replace(name)))
	var out []string
	for _, f := range strings.Fields(folded) {
		var b strings.Builder
		for i := 0; i < len(f); i++ {
			if c := f[i]; c >= 'A' && c <= 'Z' {
				b.WriteByte(c)
			}
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return out
}

// collect encodes every word, plus the concatenation of all words for
// multi-word names ("New York" is also coded as "Newyork"), and keeps the
// first limit unique codes.
func collect(name string, limit int, encode func(word string) []string) string {
	ws := words(name)
	if len(ws) == 0 {
		return ""
	}

	var codes []string
	seen := make(map[string]struct{})
	add := func(cs []string) {
		for _, c := range cs {
			if _, dup := seen[c]; dup || len(codes) >= limit {
				continue
			}
			seen[c] = struct{}{}
			codes = append(codes, c)
		}
	}

	for _, w := range ws {
		add(encode(w))
	}
	if len(ws) > 1 {
		add(encode(strings.Join(ws, "")))
	}
	return strings.Join(codes, Separator)
}
