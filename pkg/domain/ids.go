// Package domain holds the shared domain primitives: typed identifiers
// and the application reference. Constructing them through the Parse
// functions enforces validity at trust boundaries; direct casting bypasses
// validation and belongs in tests only.
package domain

import (
	"github.com/google/uuid"

	dErrors "registrar/pkg/domain-errors"
)

// RegistrationID identifies a stored registration record.
type RegistrationID uuid.UUID

// NewRegistrationID mints a random registration ID.
func NewRegistrationID() RegistrationID {
	return RegistrationID(uuid.New())
}

// ParseRegistrationID validates and returns a RegistrationID.
// IDs must be valid, non-nil UUIDs.
func ParseRegistrationID(s string) (RegistrationID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return RegistrationID{}, dErrors.New(dErrors.CodeInvalidInput, "registration id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return RegistrationID{}, dErrors.New(dErrors.CodeInvalidInput, "registration id must not be the nil UUID")
	}
	return RegistrationID(parsed), nil
}

// String returns the canonical UUID form.
func (id RegistrationID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is unset.
func (id RegistrationID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
