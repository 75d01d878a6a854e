package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "registrar/pkg/domain"
	audit "registrar/pkg/platform/audit"
	txcontext "registrar/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store on PostgreSQL. Events are written straight to
// the audit_events table; when the context carries a transaction the write
// joins it, so a registration and its audit trail commit or roll back
// together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const auditColumns = `category, timestamp, reference, subject, number, format, action, reason, request_id, client_ip`

// Append writes an audit event with a fresh ID.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts an audit event with a caller-supplied ID.
// Used by the Kafka archiver to materialize mirrored events; redeliveries
// are absorbed via ON CONFLICT DO NOTHING.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	// The eventCategories map is the source of truth; never trust a
	// category that arrived over the wire.
	category := audit.AuditEvent(event.Action).Category()

	query := `
		INSERT INTO audit_events (id, ` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(category),
		event.Timestamp,
		event.Reference.String(),
		event.Subject,
		event.Number,
		event.Format,
		event.Action,
		event.Reason,
		event.RequestID,
		event.ClientIP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByReference returns events for a citizen application reference.
func (s *Store) ListByReference(ctx context.Context, ref id.Reference) ([]audit.Event, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_events
		WHERE reference = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ref.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListAll returns all audit events (admin only).
func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_events
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category  string
			reference string
			event     audit.Event
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&reference,
			&event.Subject,
			&event.Number,
			&event.Format,
			&event.Action,
			&event.Reason,
			&event.RequestID,
			&event.ClientIP,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		event.Reference = id.Reference(reference)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
