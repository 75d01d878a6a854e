// Package store provides persistence for registration records. The memory
// implementation backs unit tests and local development; PostgreSQL is the
// production store. Both enforce the one-number-one-application invariant
// through a uniqueness check on the encoded certificate number.
package store

import (
	"context"
	"sync"

	"registrar/internal/registration/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in process memory. Safe for concurrent
// use. Lookups return copies so callers can never mutate stored state.
type InMemoryStore struct {
	mu        sync.RWMutex
	byID      map[id.RegistrationID]*models.Registration
	byEncoded map[string]id.RegistrationID
	byRef     map[id.Reference]id.RegistrationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:      make(map[id.RegistrationID]*models.Registration),
		byEncoded: make(map[string]id.RegistrationID),
		byRef:     make(map[id.Reference]id.RegistrationID),
	}
}

// Create persists a new registration. The encoded number and the
// application reference must both be unassigned; a clash on either returns
// sentinel.ErrAlreadyUsed without changing anything.
func (s *InMemoryStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEncoded[reg.Encoded]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byRef[reg.Reference]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byID[reg.ID]; ok {
		return sentinel.ErrConflict
	}

	cp := *reg
	s.byID[reg.ID] = &cp
	s.byEncoded[reg.Encoded] = reg.ID
	s.byRef[reg.Reference] = reg.ID
	return nil
}

// FindByID returns the registration with the given ID.
func (s *InMemoryStore) FindByID(_ context.Context, regID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(s.byID[regID])
}

// FindByNumber returns the registration holding the encoded certificate
// number. The caller is expected to pass the canonical compact encoding;
// the store matches exactly.
func (s *InMemoryStore) FindByNumber(_ context.Context, encoded string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regID, ok := s.byEncoded[encoded]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(s.byID[regID])
}

// FindByReference returns the registration assigned to an application
// reference.
func (s *InMemoryStore) FindByReference(_ context.Context, ref id.Reference) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regID, ok := s.byRef[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(s.byID[regID])
}

// Count returns the number of stored registrations.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemoryStore) copyOf(reg *models.Registration) (*models.Registration, error) {
	if reg == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}
