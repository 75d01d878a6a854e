package certno

import "strings"

// Decode parses a certificate number of any generation into its fields.
//
// Decode is total: whatever s contains, the result is a well-formed Number.
// Anything unparseable resolves to Defaults, never to an error. Input is
// trimmed and upper-cased before detection, so hand-entered lowercase
// values decode the same as their canonical spelling.
func Decode(s string) Number {
	s = Normalize(s)
	switch detect(s) {
	case FormatDelimited:
		return decodeDelimited(s)
	case FormatCompact:
		return decodeCompact(s)
	default:
		return Defaults()
	}
}

// Segment counts of the delimited generations, tag included. The legacy
// generation wrote every field, giving segBothOptionals segments; the
// optional-field generation omits absent years, shrinking the count.
const (
	segNoOptionals   = 8
	segOneOptional   = 9
	segBothOptionals = 10
)

func decodeDelimited(s string) Number {
	segs := strings.Split(s, separator)

	var n Number
	switch {
	case len(segs) == segNoOptionals:
		n = Number{
			Book:         segs[3],
			Volume:       segs[4],
			VolumeLetter: segs[5],
			Serial:       segs[6],
			Page:         segs[7],
		}
	case len(segs) == segOneOptional:
		n = decodeOneOptional(segs)
	case len(segs) == segBothOptionals:
		n = Number{
			Book:         segs[3],
			Volume:       segs[4],
			VolumeLetter: segs[5],
			VolumeYear:   segs[6],
			Serial:       segs[7],
			SerialYear:   segs[8],
			Page:         segs[9],
		}
	case len(segs) > segBothOptionals:
		n = decodeLegacyOverflow(segs)
	default:
		return Defaults()
	}
	return checkFields(n)
}

// decodeOneOptional resolves the nine-segment form, where exactly one of
// the two year fields is present. The segment after the volume letter
// decides: a four-digit run there is the volumeYear, anything else is the
// serial with its serialYear following.
func decodeOneOptional(segs []string) Number {
	n := Number{
		Book:         segs[3],
		Volume:       segs[4],
		VolumeLetter: segs[5],
		Page:         segs[8],
	}
	if isFourDigits(segs[6]) {
		n.VolumeYear = segs[6]
		n.Serial = segs[7]
	} else {
		n.Serial = segs[6]
		n.SerialYear = segs[7]
	}
	return n
}

// decodeLegacyOverflow absorbs the doubled-separator artifact found in the
// oldest archives, where empty fields between consecutive hyphens inflate
// the segment count past ten. Head positions keep their fixed meaning, the
// page is read from the final segment, and whatever lies between is
// dropped. Archival reads only; nothing mints this shape anymore.
func decodeLegacyOverflow(segs []string) Number {
	return Number{
		Book:         segs[3],
		Volume:       segs[4],
		VolumeLetter: segs[5],
		VolumeYear:   segs[6],
		Serial:       segs[7],
		SerialYear:   segs[8],
		Page:         segs[len(segs)-1],
	}
}

// checkFields applies the field constraints shared by the delimited
// generations. An empty book falls back to the default; any other
// violation abandons the whole value.
func checkFields(n Number) Number {
	if n.Book == "" {
		n.Book = DefaultBook
	}
	if !IsBookNumeral(n.Book) {
		return Defaults()
	}
	if !isDigits(n.Volume) || !isDigits(n.Serial) || !isDigits(n.Page) {
		return Defaults()
	}
	if n.VolumeLetter != "" && !isAlpha(n.VolumeLetter) {
		return Defaults()
	}
	if n.VolumeYear != "" && !isFourDigits(n.VolumeYear) {
		return Defaults()
	}
	if n.SerialYear != "" && !isFourDigits(n.SerialYear) {
		return Defaults()
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isAlphaChar is checked after normalize, so lowercase never reaches it.
func isAlphaChar(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphaChar(s[i]) {
			return false
		}
	}
	return true
}

func isFourDigits(s string) bool {
	return len(s) == yearDigits && isDigits(s)
}
