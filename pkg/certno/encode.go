package certno

import "strings"

// Encode renders n in the compact form, the only generation the registry
// still mints. Absent optional fields are omitted outright; nothing marks
// their place. A number missing any required field encodes to "", the one
// condition callers check before persisting or displaying the result. The
// live form preview relies on it to stay blank until the form is complete.
//
// Delimited output is deliberately not supported: the older generations
// exist only to be read.
func Encode(n Number) string {
	if !n.IsComplete() {
		return ""
	}
	book := n.Book
	if book == "" {
		book = DefaultBook
	}

	var b strings.Builder
	b.Grow(len(CompactPrefix) + len(book) + len(n.Volume) + len(n.VolumeLetter) +
		len(n.VolumeYear) + len(n.Serial) + len(n.SerialYear) + len(n.Page))
	b.WriteString(CompactPrefix)
	b.WriteString(book)
	b.WriteString(n.Volume)
	b.WriteString(n.VolumeLetter)
	b.WriteString(n.VolumeYear)
	b.WriteString(n.Serial)
	b.WriteString(n.SerialYear)
	b.WriteString(n.Page)
	return b.String()
}
