package ingest

import (
	"strconv"
	"strings"
)

var gedcomMonths = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

// Qualifiers that make a date approximate without changing its sort position.
var dateQualifiers = map[string]bool{
	"ABT": true, "CAL": true, "EST": true, "BEF": true, "AFT": true,
	"FROM": true, "BET": true, "INT": true,
}

// date is a parsed dataset date.
type date struct {
	Year  int
	Month int
	Day   int
}

// Key is a sortable YYYYMMDD integer; unknown parts are zero.
func (d date) Key() int {
	return d.Year*10000 + d.Month*100 + d.Day
}

// parseDate understands ISO dates ("1878", "1878-05", "1878-05-12") and
// GEDCOM dates ("12 MAY 1878", "MAY 1878", "ABT 1850", "BET 1850 AND 1860").
// Ranges take their first date.
func parseDate(s string) (date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return date{}, false
	}
	if d, ok := parseISODate(s); ok {
		return d, true
	}
	return parseGEDCOMDate(s)
}

func parseISODate(s string) (date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) > 3 || len(parts[0]) != 4 {
		return date{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return date{}, false
		}
		nums[i] = n
	}
	d := date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Year == 0 || d.Month > 12 || d.Day > 31 {
		return date{}, false
	}
	return d, true
}

func parseGEDCOMDate(s string) (date, bool) {
	var d date
	for _, tok := range strings.Fields(strings.ToUpper(s)) {
		if dateQualifiers[tok] {
			continue
		}
		if tok == "AND" || tok == "TO" {
			break
		}
		if m, ok := gedcomMonths[tok]; ok {
			d.Month = m
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return date{}, false
		}
		if n <= 31 && d.Month == 0 && d.Day == 0 && d.Year == 0 {
			d.Day = n
			continue
		}
		d.Year = n
		break
	}
	if d.Year == 0 {
		return date{}, false
	}
	return d, true
}

// lifespan renders "1850-1920", "1850-" or "-1920".
func lifespan(birth, death string) string {
	b, bok := parseDate(birth)
	d, dok := parseDate(death)
	switch {
	case bok && dok:
		return strconv.Itoa(b.Year) + "-" + strconv.Itoa(d.Year)
	case bok:
		return strconv.Itoa(b.Year) + "-"
	case dok:
		return "-" + strconv.Itoa(d.Year)
	default:
		return ""
	}
}
