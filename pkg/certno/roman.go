package certno

// maxBook is the highest book the registry has ever opened.
const maxBook = 50

// bookNumerals is the allowlist of canonical numerals, I through L. Only
// subtractive spellings count: IV is a book, IIII is not.
var bookNumerals = buildBookNumerals()

func buildBookNumerals() map[string]struct{} {
	ones := [...]string{"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX"}
	tens := [...]string{"", "X", "XX", "XXX", "XL", "L"}
	m := make(map[string]struct{}, maxBook)
	for n := 1; n <= maxBook; n++ {
		m[tens[n/10]+ones[n%10]] = struct{}{}
	}
	return m
}

// IsBookNumeral reports whether s is a canonical book numeral, I through
// L. Callers validating hand-entered book values should normalize case
// first; only upper-case spellings are canonical.
func IsBookNumeral(s string) bool {
	_, ok := bookNumerals[s]
	return ok
}

// isRomanChar reports whether c can appear in a book numeral.
func isRomanChar(c byte) bool {
	return c == 'I' || c == 'V' || c == 'X' || c == 'L'
}
