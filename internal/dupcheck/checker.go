// Package dupcheck answers one question on the assignment path: is this
// certificate number already held by a different application? The check is
// advisory. It exists to reject hopeless submissions before they reach the
// database; the registration store's unique index remains the authority,
// so a false negative here costs one doomed insert, never a duplicate.
package dupcheck

import (
	"context"
	"errors"

	"registrar/internal/registration/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// Checker reports whether an encoded certificate number is assigned to an
// application other than ref. A number already held by ref itself is not a
// duplicate; resubmission of the same pairing is the clerk retrying, not a
// clash.
type Checker interface {
	IsAssigned(ctx context.Context, encoded string, ref id.Reference) (bool, error)
}

// NumberFinder is the one store lookup the checkers need.
type NumberFinder interface {
	FindByNumber(ctx context.Context, encoded string) (*models.Registration, error)
}

// StoreChecker consults the registration store directly. It is the
// baseline implementation and the fallback behind RedisChecker.
type StoreChecker struct {
	store NumberFinder
}

func NewStoreChecker(store NumberFinder) *StoreChecker {
	return &StoreChecker{store: store}
}

func (c *StoreChecker) IsAssigned(ctx context.Context, encoded string, ref id.Reference) (bool, error) {
	reg, err := c.store.FindByNumber(ctx, encoded)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return reg.Reference != ref, nil
}
