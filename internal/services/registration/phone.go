package registration

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizePhone returns the number in the 380XXXXXXXXX form. Accepted
// inputs are the full form, a national number with a leading zero and the
// nine subscriber digits alone; any separators are ignored.
func NormalizePhone(raw string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "380"):
		return digits, true
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "38" + digits, true
	case len(digits) == 9:
		return "380" + digits, true
	}

	return "", false
}

// NormalizeName trims and collapses whitespace and validates the length
func NormalizeName(raw string) (string, bool) {
	name := strings.Join(strings.FieldsFunc(raw, unicode.IsSpace), " ")
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", false
	}
	return name, true
}
