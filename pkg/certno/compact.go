package certno

// Boundary constants of the compact decoder. The compact generation writes
// fields with no separators, so splitting a digit run is policy, not
// grammar. Every value here is load-bearing: the registration form
// composes numbers under the same rules, and changing one side without the
// other breaks decoding of already-issued numbers.
const (
	// yearDigits is the width of a year field.
	yearDigits = 4

	// yearMin and yearMax bound a plausible registry year. A four-digit
	// run outside the window is ordinary serial or page data. Fixed-width
	// digit strings compare lexicographically in numeric order.
	yearMin = "1900"
	yearMax = "2099"

	// maxPatternSerial caps the serial width tried when a run is matched
	// as serial, serialYear, page.
	maxPatternSerial = 3

	// maxSplitPage caps the page width taken from the tail of a run that
	// carries no year anchor.
	maxSplitPage = 3

	// minTrailingRun is the least a serial and a page can occupy together.
	minTrailingRun = 2

	// patternRun and yearSplitRun are the run widths, leading year
	// included, from which the two year-anchored strategies apply.
	patternRun   = 8
	yearSplitRun = 6

	// bareVolumeDigits is the volume width assumed when no letter bounds
	// the volume and no year anchors it. Letterless volumes have only ever
	// been issued a single digit wide.
	bareVolumeDigits = 1
)

// decodeCompact parses the current generation. After the tag the fields
// are concatenated directly, so the decoder works left to right: book from
// the leading Roman run, volume from the digit run after it, an optional
// letter, then one unlabeled digit run whose boundaries are resolved by
// splitTrailing.
func decodeCompact(s string) Number {
	rest := s[len(CompactPrefix):]

	book := leadingRomanRun(rest)
	if !IsBookNumeral(book) {
		return Defaults()
	}
	rest = rest[len(book):]

	digits := leadingDigitRun(rest)
	if digits == "" {
		return Defaults()
	}
	rest = rest[len(digits):]

	letter := leadingAlphaRun(rest)
	run := rest[len(letter):]

	if letter == "" {
		// Nothing bounds the volume on the right, so the volume and the
		// trailing fields share the digit run.
		if run != "" {
			return Defaults()
		}
		return splitBare(book, digits)
	}

	if !isDigits(run) {
		return Defaults()
	}
	n, ok := splitTrailing(run)
	if !ok {
		return Defaults()
	}
	n.Book = book
	n.Volume = digits
	n.VolumeLetter = letter
	return n
}

// splitBare handles the letterless layout, where one unbroken digit run
// holds the volume and everything after it. The earliest in-run position
// that starts a plausible year with at least a serial and a page behind it
// anchors the volume boundary; without an anchor the volume is read
// bareVolumeDigits wide.
func splitBare(book, run string) Number {
	cut := bareVolumeDigits
	for i := 1; i+yearDigits+minTrailingRun <= len(run); i++ {
		if IsPlausibleYear(run[i : i+yearDigits]) {
			cut = i
			break
		}
	}
	n, ok := splitTrailing(run[cut:])
	if !ok {
		return Defaults()
	}
	n.Book = book
	n.Volume = run[:cut]
	return n
}

// splitTrailing resolves the unlabeled digit run that closes a compact
// number: an optional four-digit volumeYear, the serial, an optional
// four-digit serialYear, the page. Strategies in priority order:
//
//  1. A run of patternRun or longer opening with a plausible year takes
//     the year, then looks for a short serial followed by another
//     plausible year and at least one page digit.
//  2. A run of yearSplitRun or longer opening with a plausible year takes
//     the year and splits the rest between serial and page, the serial
//     taking the longer half.
//  3. Otherwise the run is serial then page, the page taking the trailing
//     min(maxSplitPage, len/2) digits, never fewer than one.
//
// Both year positions must hold plausible years, not merely four digits: a
// bare four-digit test would shear serials apart mid-run (serial 16 before
// year 2025 would otherwise match as serial 1, year 6202, page 5).
func splitTrailing(t string) (Number, bool) {
	l := len(t)
	if l < minTrailingRun {
		return Number{}, false
	}

	if l >= patternRun && IsPlausibleYear(t[:yearDigits]) {
		if n, ok := matchSerialYearPage(t[yearDigits:]); ok {
			n.VolumeYear = t[:yearDigits]
			return n, true
		}
	}

	if l >= yearSplitRun && IsPlausibleYear(t[:yearDigits]) {
		rest := t[yearDigits:]
		cut := (len(rest) + 1) / 2
		return Number{
			VolumeYear: t[:yearDigits],
			Serial:     rest[:cut],
			Page:       rest[cut:],
		}, true
	}

	pageLen := l / 2
	if pageLen > maxSplitPage {
		pageLen = maxSplitPage
	}
	if pageLen < 1 {
		pageLen = 1
	}
	return Number{
		Serial: t[:l-pageLen],
		Page:   t[l-pageLen:],
	}, true
}

// matchSerialYearPage tries serial widths ascending against the layout
// serial, serialYear, page. The first fit wins.
func matchSerialYearPage(rest string) (Number, bool) {
	for w := 1; w <= maxPatternSerial; w++ {
		if len(rest) < w+yearDigits+1 {
			break
		}
		if !IsPlausibleYear(rest[w : w+yearDigits]) {
			continue
		}
		return Number{
			Serial:     rest[:w],
			SerialYear: rest[w : w+yearDigits],
			Page:       rest[w+yearDigits:],
		}, true
	}
	return Number{}, false
}

// IsPlausibleYear reports whether y is a four-digit run inside the
// yearMin..yearMax window. Exported so the composing side can refuse years
// the decoder would read back as serial or page data.
func IsPlausibleYear(y string) bool {
	return isFourDigits(y) && y >= yearMin && y <= yearMax
}

func leadingRomanRun(s string) string {
	i := 0
	for i < len(s) && isRomanChar(s[i]) {
		i++
	}
	return s[:i]
}

func leadingDigitRun(s string) string {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i]
}

func leadingAlphaRun(s string) string {
	i := 0
	for i < len(s) && isAlphaChar(s[i]) {
		i++
	}
	return s[:i]
}
