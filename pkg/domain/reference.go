package domain

import (
	"strings"

	dErrors "registrar/pkg/domain-errors"
)

// Reference is the application reference the intake wizard assigns to a
// marriage application. The registry treats it as an opaque key; only its
// shape is enforced here.
//
// Invariants: non-empty, at most maxReferenceLen characters, and limited
// to upper-case letters, digits and hyphens.
type Reference string

const maxReferenceLen = 64

// ParseReference constructs a Reference from external input. Surrounding
// whitespace is trimmed and the value is upper-cased before validation.
func ParseReference(s string) (Reference, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "application reference is required")
	}
	if len(s) > maxReferenceLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "application reference exceeds 64 characters")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return "", dErrors.New(dErrors.CodeInvalidInput, "application reference contains unsupported characters")
		}
	}
	return Reference(s), nil
}

// String returns the reference as entered, already normalized.
func (r Reference) String() string {
	return string(r)
}

// IsNil reports whether the reference is empty.
func (r Reference) IsNil() bool {
	return r == ""
}
