// Package certno encodes and decodes marriage certificate numbers.
//
// Three textual generations of the number are in circulation:
//
//   - a legacy fully delimited form, every field written:
//     "WB-MSD-BRW-I-1-C-2024-16-2025-21"
//   - a delimited form that omits absent year fields:
//     "WB-MSD-BRW-I-1-C-16-21"
//   - the current compact form with no separators at all:
//     "WBMSDBRWI1C202416202521"
//
// Decode accepts all three and is total: malformed input degrades to
// Defaults instead of an error, because stored numbers span years of hand
// entry and the verification screens must always have something to render.
// Encode produces the compact form only and returns the empty string while
// required fields are missing.
//
// The package is a pure function library. It performs no I/O, holds no
// state, and is safe for concurrent use without coordination.
package certno

// The issuing-authority tag. The three parts open every certificate
// number, hyphen separated in the delimited generations and concatenated
// in the compact one.
const (
	tagState  = "WB"
	tagDept   = "MSD"
	tagOffice = "BRW"
)

const separator = "-"

// Prefixes that identify the two recognizable families.
const (
	DelimitedPrefix = tagState + separator + tagDept + separator + tagOffice
	CompactPrefix   = tagState + tagDept + tagOffice
)

// DefaultBook is the book a number falls back to when input carries no
// usable value.
const DefaultBook = "I"

// Number is the structured form of a certificate number.
//
// Invariants:
//   - Book is one of the canonical Roman numerals I through L.
//   - Volume, Serial and Page are digit strings, never empty after a
//     successful decode.
//   - VolumeLetter is empty or alphabetic.
//   - VolumeYear and SerialYear are empty or exactly four digits.
//
// Number is a value type: Decode and Encode never mutate their input, and
// every transformation returns a fresh value.
type Number struct {
	Book         string
	Volume       string
	VolumeLetter string
	VolumeYear   string
	Serial       string
	SerialYear   string
	Page         string
}

// Defaults is the value every failed decode resolves to.
func Defaults() Number {
	return Number{Book: DefaultBook}
}

// IsComplete reports whether the required fields are populated. Encode
// produces output only for complete numbers.
func (n Number) IsComplete() bool {
	return n.Volume != "" && n.Serial != "" && n.Page != ""
}

// IsDefault reports whether n is exactly the fallback value, which is how
// callers recognize that a decode absorbed malformed input.
func (n Number) IsDefault() bool {
	return n == Defaults()
}
