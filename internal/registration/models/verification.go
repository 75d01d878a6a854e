package models

import "registrar/pkg/certno"

// Verification is the outcome of checking a presented certificate number.
// Verify never fails on malformed input, so the zero-ish shape with
// Defaulted set is a legitimate result, not an error path.
type Verification struct {
	// Input is the presented number after normalization, the exact string
	// audit records carry.
	Input string
	// Format is the detected generation of the input.
	Format certno.Format
	// Number holds the decoded fields; the defaults value when the input
	// was unreadable.
	Number certno.Number
	// Canonical is the compact re-encoding, empty when the decode
	// degraded to defaults.
	Canonical string
	// Defaulted reports that the decode absorbed malformed input.
	Defaulted bool
	// Registered reports whether the canonical number is assigned.
	Registered bool
	// Registration is the owning record when Registered is true.
	Registration *Registration
}
