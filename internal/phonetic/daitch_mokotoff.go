package phonetic

import (
	"sort"
	"strings"
)

const (
	dmCodeLen = 6
	// dmMaxCodes bounds a code set to what fits a 255 byte index column.
	dmMaxCodes = 36
)

// dmRule codes one letter group. Each position holds the alternative
// codes for that context; an empty alternative means "not coded".
type dmRule struct {
	pattern string
	start   []string // at the beginning of a word
	vowel   []string // before a vowel
	other   []string
}

// dmGroup lists letter groups sharing the same codes. Alternatives are
// separated by "|" and "-" marks a group that is not coded.
type dmGroup struct {
	patterns            []string
	start, vowel, other string
}

// dmRules is ordered longest pattern first so the longest group wins.
var dmRules = buildDMRules([]dmGroup{
	{[]string{"AI", "AJ", "AY"}, "0", "1", "-"},
	{[]string{"AU"}, "0", "7", "-"},
	{[]string{"A"}, "0", "-", "-"},
	{[]string{"B"}, "7", "7", "7"},
	{[]string{"CHS"}, "5", "54", "54"},
	{[]string{"CH"}, "5|4", "5|4", "5|4"},
	{[]string{"CK"}, "5|45", "5|45", "5|45"},
	{[]string{"CZ", "CS", "CSZ", "CZS"}, "4", "4", "4"},
	{[]string{"C"}, "5|4", "5|4", "5|4"},
	{[]string{"DRZ", "DRS"}, "4", "4", "4"},
	{[]string{"DS", "DSH", "DSZ"}, "4", "4", "4"},
	{[]string{"DZ", "DZH", "DZS"}, "4", "4", "4"},
	{[]string{"D", "DT"}, "3", "3", "3"},
	{[]string{"EI", "EJ", "EY"}, "0", "1", "-"},
	{[]string{"EU"}, "1", "1", "-"},
	{[]string{"E"}, "0", "-", "-"},
	{[]string{"FB", "F"}, "7", "7", "7"},
	{[]string{"G"}, "5", "5", "5"},
	{[]string{"H"}, "5", "5", "-"},
	{[]string{"IA", "IE", "IO", "IU"}, "1", "-", "-"},
	{[]string{"I"}, "0", "-", "-"},
	{[]string{"J"}, "1|4", "-|4", "-|4"},
	{[]string{"KS"}, "5", "54", "54"},
	{[]string{"KH", "K"}, "5", "5", "5"},
	{[]string{"L"}, "8", "8", "8"},
	{[]string{"MN", "NM"}, "66", "66", "66"},
	{[]string{"M", "N"}, "6", "6", "6"},
	{[]string{"OI", "OJ", "OY"}, "0", "1", "-"},
	{[]string{"O"}, "0", "-", "-"},
	{[]string{"P", "PF", "PH"}, "7", "7", "7"},
	{[]string{"Q"}, "5", "5", "5"},
	{[]string{"RZ", "RS"}, "94|4", "94|4", "94|4"},
	{[]string{"R"}, "9", "9", "9"},
	{[]string{"SCHTSCH", "SCHTSH", "SCHTCH"}, "2", "4", "4"},
	{[]string{"SCH"}, "4", "4", "4"},
	{[]string{"SHTCH", "SHCH", "SHTSH"}, "2", "4", "4"},
	{[]string{"SHT", "SCHT", "SCHD"}, "2", "43", "43"},
	{[]string{"SH"}, "4", "4", "4"},
	{[]string{"STCH", "STSCH", "SC"}, "2", "4", "4"},
	{[]string{"STRZ", "STRS", "STSH"}, "2", "4", "4"},
	{[]string{"ST"}, "2", "43", "43"},
	{[]string{"SZCZ", "SZCS"}, "2", "4", "4"},
	{[]string{"SZT", "SHD", "SZD", "SD"}, "2", "43", "43"},
	{[]string{"SZ", "S"}, "4", "4", "4"},
	{[]string{"TCH", "TTCH", "TTSCH"}, "4", "4", "4"},
	{[]string{"TH"}, "3", "3", "3"},
	{[]string{"TRZ", "TRS"}, "4", "4", "4"},
	{[]string{"TSCH", "TSH"}, "4", "4", "4"},
	{[]string{"TS", "TTS", "TTSZ", "TC"}, "4", "4", "4"},
	{[]string{"TZ", "TTZ", "TZS", "TSZ"}, "4", "4", "4"},
	{[]string{"T"}, "3", "3", "3"},
	{[]string{"UI", "UJ", "UY"}, "0", "1", "-"},
	{[]string{"U", "UE"}, "0", "-", "-"},
	{[]string{"V", "W"}, "7", "7", "7"},
	{[]string{"X"}, "5", "54", "54"},
	{[]string{"Y"}, "1", "-", "-"},
	{[]string{"ZDZ", "ZDZH", "ZHDZH"}, "2", "4", "4"},
	{[]string{"ZD", "ZHD"}, "2", "43", "43"},
	{[]string{"ZH", "ZS", "ZSCH", "ZSH"}, "4", "4", "4"},
	{[]string{"Z"}, "4", "4", "4"},
})

func buildDMRules(groups []dmGroup) []dmRule {
	alts := func(s string) []string {
		if s == "-" {
			return []string{""}
		}
		return strings.Split(s, "|")
	}
	var rules []dmRule
	for _, g := range groups {
		for _, p := range g.patterns {
			rules = append(rules, dmRule{
				pattern: p,
				start:   alts(g.start),
				vowel:   alts(g.vowel),
				other:   alts(g.other),
			})
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].pattern) > len(rules[j].pattern)
	})
	return rules
}

func isDMVowel(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// DaitchMokotoff returns the Daitch-Mokotoff soundex code set of name.
func DaitchMokotoff(name string) string {
	return collect(name, dmMaxCodes, dmWord)
}

// dmBranch is one partial code. Ambiguous letter groups fork branches.
type dmBranch struct {
	code string
	last string
}

func (b dmBranch) append(replacement string) dmBranch {
	if replacement != "" && (b.last == "" || !strings.HasSuffix(b.last, replacement)) {
		b.code += replacement
		if len(b.code) > dmCodeLen {
			b.code = b.code[:dmCodeLen]
		}
	}
	b.last = replacement
	return b
}

func dmWord(word string) []string {
	branches := []dmBranch{{}}
	for i := 0; i < len(word); {
		rule, ok := matchDMRule(word, i)
		if !ok {
			i++
			continue
		}

		next := i + len(rule.pattern)
		alternatives := rule.other
		switch {
		case i == 0:
			alternatives = rule.start
		case next < len(word) && isDMVowel(word[next]):
			alternatives = rule.vowel
		}

		forked := make([]dmBranch, 0, len(branches)*len(alternatives))
		seen := make(map[dmBranch]struct{})
		for _, b := range branches {
			for _, alt := range alternatives {
				nb := b.append(alt)
				if _, dup := seen[nb]; dup {
					continue
				}
				seen[nb] = struct{}{}
				forked = append(forked, nb)
			}
		}
		branches = forked
		i = next
	}

	var codes []string
	seen := make(map[string]struct{})
	for _, b := range branches {
		code := b.code + strings.Repeat("0", dmCodeLen-len(b.code))
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

func matchDMRule(word string, i int) (dmRule, bool) {
	for _, r := range dmRules {
		if strings.HasPrefix(word[i:], r.pattern) {
			return r, true
		}
	}
	return dmRule{}, false
}
