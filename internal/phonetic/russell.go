package phonetic

// russellMaxCodes bounds a code set to what fits a 255 byte index column
// (51 four-character codes plus separators).
const russellMaxCodes = 51

// russellDigits maps A..Z to soundex digits. '0' letters carry no digit
// but separate repeated digits.
var russellDigits = [26]byte{
	'0', '1', '2', '3', '0', '1', '2', '0', '0', '2', '2', '4', '5',
	'5', '0', '1', '2', '6', '2', '3', '0', '1', '0', '2', '0', '2',
}

// Russell returns the Russell soundex code set of name.
func Russell(name string) string {
	return collect(name, russellMaxCodes, func(word string) []string {
		code := russellWord(word)
		if code == "0000" {
			return nil
		}
		return []string{code}
	})
}

func russellWord(word string) string {
	code := make([]byte, 0, 4)
	var last byte
	for i := 0; i < len(word) && len(code) < 4; i++ {
		c := word[i]
		if c < 'A' || c > 'Z' {
			continue
		}
		d := russellDigits[c-'A']
		if len(code) == 0 {
			code = append(code, c)
			last = d
			continue
		}
		if d != last {
			if d != '0' {
				code = append(code, d)
			}
			last = d
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}
