package certno

import "testing"

func TestDecodeDelimited(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Number
	}{
		{
			name: "legacy form with every field",
			in:   "WB-MSD-BRW-I-1-C-2024-16-2025-21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		},
		{
			name: "no optional years",
			in:   "WB-MSD-BRW-I-1-C-16-21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		},
		{
			name: "nine segments with volume year",
			in:   "WB-MSD-BRW-I-1-C-2024-16-21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", Page: "21"},
		},
		{
			name: "nine segments with serial year",
			in:   "WB-MSD-BRW-I-1-C-16-2025-21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", SerialYear: "2025", Page: "21"},
		},
		{
			name: "multi character book numeral",
			in:   "WB-MSD-BRW-XLIX-12-B-123-45",
			want: Number{Book: "XLIX", Volume: "12", VolumeLetter: "B", Serial: "123", Page: "45"},
		},
		{
			name: "empty volume letter",
			in:   "WB-MSD-BRW-I-1--2024-16-2025-21",
			want: Number{Book: "I", Volume: "1", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		},
		{
			name: "empty book falls back to default",
			in:   "WB-MSD-BRW--1-C-16-21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		},
		{
			name: "lowercase with surrounding whitespace",
			in:   "  wb-msd-brw-i-1-c-16-21  ",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		},
		{
			name: "doubled separator overflow reads page from last segment",
			in:   "WB-MSD-BRW-I-1-C-2024-16-2025--21",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.in); got != tt.want {
				t.Fatalf("Decode(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeDelimitedDefaults(t *testing.T) {
	inputs := []string{
		"WB-MSD-BRW",                        // tag only
		"WB-MSD-BRW-I-1-C-16",               // seven segments
		"WB-MSD-BRW-ABC-1-C-16-21",          // book is not a canonical numeral
		"WB-MSD-BRW-IIII-1-C-16-21",         // non-subtractive numeral
		"WB-MSD-BRW-I-1A-C-16-21",           // volume is not a digit run
		"WB-MSD-BRW-I-1-C-202-16-2025-21",   // volume year is not four digits
		"WB-MSD-BRW-I-1-C-16-21-99",         // serial year is not four digits
		"WB-MSD-BRW-I-1-C-2024--2025-21",    // empty serial
		"WB-MSD-BRW-I-1-C7-16-21",           // letter position holds a digit
	}
	for _, in := range inputs {
		if got := Decode(in); !got.IsDefault() {
			t.Errorf("Decode(%q) = %+v, want defaults", in, got)
		}
	}
}

func TestDecodeCompact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Number
	}{
		{
			name: "every field",
			in:   "WBMSDBRWI1C202416202521",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		},
		{
			name: "letter and required fields only",
			in:   "WBMSDBRWI1C1621",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		},
		{
			name: "minimal letterless number",
			in:   "WBMSDBRWI12122",
			want: Number{Book: "I", Volume: "1", Serial: "21", Page: "22"},
		},
		{
			name: "volume year without serial year",
			in:   "WBMSDBRWI1C20241621",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", Page: "21"},
		},
		{
			name: "letterless with both years",
			in:   "WBMSDBRWI1202416202521",
			want: Number{Book: "I", Volume: "1", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		},
		{
			name: "letterless with volume year only",
			in:   "WBMSDBRWI7202412345",
			want: Number{Book: "I", Volume: "7", VolumeYear: "2024", Serial: "123", Page: "45"},
		},
		{
			name: "lowercase input",
			in:   "wbmsdbrwi1c1621",
			want: Number{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		},
		{
			name: "multi character book numeral",
			in:   "WBMSDBRWXII3B45",
			want: Number{Book: "XII", Volume: "3", VolumeLetter: "B", Serial: "4", Page: "5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.in); got != tt.want {
				t.Fatalf("Decode(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeCompactDefaults(t *testing.T) {
	inputs := []string{
		"",
		"WBMSDBRW",          // tag only
		"WBMSDBRWI",         // book only
		"WBMSDBRWI1",        // digit run too short to hold serial and page
		"WBMSDBRWI1C",       // letter with nothing after it
		"WBMSDBRWI1C2",      // trailing run shorter than two digits
		"WBMSDBRW1C1621",    // no book numeral
		"WBMSDBRWIIII1621",  // non-subtractive numeral
		"WBMSDBRWIC1621",    // letter with no volume digits
		"WBMSDBRWI1C16X",    // non-digit inside the trailing run
		"WBMSDBRWI1C16 21",  // interior whitespace
		"not-a-number",
		"WBMSD",
	}
	for _, in := range inputs {
		if got := Decode(in); !got.IsDefault() {
			t.Errorf("Decode(%q) = %+v, want defaults", in, got)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   Number
		want string
	}{
		{
			name: "every field",
			in:   Number{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
			want: "WBMSDBRWI1C202416202521",
		},
		{
			name: "required fields only with no artifact for the absent ones",
			in:   Number{Book: "I", Volume: "1", Serial: "16", Page: "21"},
			want: "WBMSDBRWI11621",
		},
		{
			name: "empty book encodes as the default",
			in:   Number{Volume: "1", Serial: "16", Page: "21"},
			want: "WBMSDBRWI11621",
		},
		{
			name: "larger book numeral",
			in:   Number{Book: "XL", Volume: "7", Serial: "123", Page: "45"},
			want: "WBMSDBRWXL712345",
		},
		{name: "missing volume", in: Number{Book: "I", Serial: "16", Page: "21"}, want: ""},
		{name: "missing serial", in: Number{Book: "I", Volume: "1", Page: "21"}, want: ""},
		{name: "missing page", in: Number{Book: "I", Volume: "1", Serial: "16"}, want: ""},
		{name: "zero value", in: Number{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.in); got != tt.want {
				t.Fatalf("Encode(%+v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	numbers := []Number{
		{Book: "I", Volume: "1", VolumeLetter: "C", VolumeYear: "2024", Serial: "16", SerialYear: "2025", Page: "21"},
		{Book: "V", Volume: "12", VolumeYear: "1999", Serial: "7", SerialYear: "2001", Page: "345"},
		{Book: "I", Volume: "1", VolumeLetter: "C", Serial: "16", Page: "21"},
		{Book: "II", Volume: "3", Serial: "45", Page: "6"},
		{Book: "XL", Volume: "7", Serial: "123", Page: "45"},
	}
	for _, want := range numbers {
		encoded := Encode(want)
		if encoded == "" {
			t.Fatalf("Encode(%+v) returned empty for a complete number", want)
		}
		if got := Decode(encoded); got != want {
			t.Errorf("Decode(Encode(%+v)) = %+v via %q", want, got, encoded)
		}
	}
}

func TestEncodeIdempotence(t *testing.T) {
	canonical := []string{
		"WBMSDBRWI1C202416202521",
		"WBMSDBRWI1C1621",
		"WBMSDBRWI12122",
		"WBMSDBRWXL712345",
		"WBMSDBRWI1202416202521",
	}
	for _, s := range canonical {
		if got := Encode(Decode(s)); got != s {
			t.Errorf("Encode(Decode(%q)) = %q, want the input unchanged", s, got)
		}
	}
}

func TestDecodeTotality(t *testing.T) {
	// None of these may panic, and each must yield either defaults or a
	// complete number.
	inputs := []string{
		"",
		" ",
		"WB",
		"WB-MSD-BRW-",
		"WBMSDBRW\x00\x01",
		"WBMSDBRW\xff\xfe",
		"WB-MSD-BRW-I-1-C-16-21-",
		"WBMSDBRWÏ1C1621",
		"ＷＢＭＳＤ",
		"WB-MSD-BRW-I-1-C-16-21\nWB-MSD-BRW-I-1-C-16-21",
	}
	for _, in := range inputs {
		got := Decode(in)
		if !got.IsDefault() && !got.IsComplete() {
			t.Errorf("Decode(%q) = %+v, neither defaults nor complete", in, got)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"WB-MSD-BRW-I-1-C-16-21", FormatDelimited},
		{"WB-MSD-BRW", FormatDelimited},
		{"WBMSDBRWI12122", FormatCompact},
		{"WBMSDBRW", FormatCompact},
		{"  wbmsdbrwi12122  ", FormatCompact},
		{"wb-msd-brw-i-1-c-16-21", FormatDelimited},
		{"WBMSD", FormatUnknown},
		{"", FormatUnknown},
		{"BRW-MSD-WB-I-1-C-16-21", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.in); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	pairs := map[Format]string{
		FormatDelimited: "delimited",
		FormatCompact:   "compact",
		FormatUnknown:   "unknown",
		Format(99):      "unknown",
	}
	for f, want := range pairs {
		if got := f.String(); got != want {
			t.Errorf("Format(%d).String() = %q, want %q", int(f), got, want)
		}
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Book != DefaultBook {
		t.Fatalf("Defaults().Book = %q, want %q", d.Book, DefaultBook)
	}
	if d.IsComplete() {
		t.Fatal("Defaults() must not be complete")
	}
	if !d.IsDefault() {
		t.Fatal("Defaults().IsDefault() = false")
	}
	if got := Encode(d); got != "" {
		t.Fatalf("Encode(Defaults()) = %q, want empty", got)
	}
}
