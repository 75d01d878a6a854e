package certno

import "strings"

// Format identifies which textual generation an input matches.
type Format int

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatCompact
)

// String returns the wire name of the format, used in responses, logs and
// audit details.
func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatCompact:
		return "compact"
	default:
		return "unknown"
	}
}

// DetectFormat classifies s by its authority-tag prefix. Classification is
// purely syntactic, runs in O(len(s)) with no backtracking, and applies the
// same normalization Decode does, so the two always agree. Unknown input
// decodes to Defaults.
func DetectFormat(s string) Format {
	return detect(Normalize(s))
}

// Normalize is the single cleanup step shared by detection and decoding.
// Hand-entered and scanned legacy values arrive in mixed case with stray
// whitespace. Callers that record presented numbers should store the
// normalized form so lookups and audit agree with the decoder.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func detect(s string) Format {
	switch {
	case strings.HasPrefix(s, DelimitedPrefix):
		return FormatDelimited
	case strings.HasPrefix(s, CompactPrefix):
		return FormatCompact
	default:
		return FormatUnknown
	}
}
