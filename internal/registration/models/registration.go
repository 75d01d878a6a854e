package models

import (
	"time"

	"registrar/pkg/certno"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
)

// Registration is the aggregate root for an assigned certificate number.
//
// Invariants:
//   - Reference is non-empty; it names the application the number belongs to
//   - Number is complete (volume, serial and page populated) and its book is
//     a canonical numeral
//   - Encoded is exactly certno.Encode(Number) at construction time and is
//     the uniqueness key for the whole registry
//   - RegisteredAt and CreatedAt are immutable after construction
//
// # Uniqueness Invariant
//
// A certificate number is assigned to at most one application reference,
// ever. The aggregate cannot enforce this alone; the store's unique index on
// Encoded is the authority, and the duplicate-check collaborator in front of
// it only shortens the window. Callers must treat a conflict from the store
// as authoritative even after a clean duplicate check.
type Registration struct {
	ID           id.RegistrationID `json:"id"`
	Reference    id.Reference      `json:"reference"`
	Number       certno.Number     `json:"number"`
	Encoded      string            `json:"encoded"`
	RegisteredAt time.Time         `json:"registered_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewRegistration constructs a Registration and validates its invariants.
// The number must encode cleanly; an incomplete number cannot be registered.
func NewRegistration(regID id.RegistrationID, ref id.Reference, number certno.Number, now time.Time) (*Registration, error) {
	if regID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration id is required")
	}
	if ref.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application reference is required")
	}
	if number.Book == "" {
		number.Book = certno.DefaultBook
	}
	if !certno.IsBookNumeral(number.Book) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "book must be a canonical numeral I through L")
	}
	encoded := certno.Encode(number)
	if encoded == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "certificate number is incomplete")
	}
	return &Registration{
		ID:           regID,
		Reference:    ref,
		Number:       number,
		Encoded:      encoded,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
