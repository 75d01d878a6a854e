package audit

import (
	"context"

	id "registrar/pkg/domain"
)

// Store persists audit events. Implementations must be safe for concurrent
// use; Append is called from request paths and from the async publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByReference(ctx context.Context, ref id.Reference) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
