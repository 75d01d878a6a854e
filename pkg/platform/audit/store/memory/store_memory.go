package memory

import (
	"context"
	"sync"

	id "registrar/pkg/domain"
	audit "registrar/pkg/platform/audit"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	byRef map[id.Reference][]audit.Event
	// order keeps insertion order across references so ListRecent does not
	// depend on map iteration.
	order []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byRef: make(map[id.Reference][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRef = make(map[id.Reference][]audit.Event)
	s.order = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRef[event.Reference] = append(s.byRef[event.Reference], event)
	s.order = append(s.order, event)
	return nil
}

func (s *InMemoryStore) ListByReference(_ context.Context, ref id.Reference) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.byRef[ref]...), nil
}

// ListAll returns every stored event in insertion order (admin-only operation)
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.order...), nil
}

// ListRecent returns the most recent N events across all references
// (admin-only operation)
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.order) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.order[start:]...), nil
}
