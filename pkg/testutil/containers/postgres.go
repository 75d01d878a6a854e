//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors the deployment DDL. Inline so the integration suite needs
// nothing but Docker. The unique indexes on encoded and reference are load
// bearing: the stores rely on ON CONFLICT to reject duplicate assignments.
const schema = `
CREATE TABLE IF NOT EXISTS registrations (
	id            UUID PRIMARY KEY,
	reference     TEXT NOT NULL,
	encoded       TEXT NOT NULL,
	book          TEXT NOT NULL,
	volume        TEXT NOT NULL,
	volume_letter TEXT NOT NULL DEFAULT '',
	volume_year   TEXT NOT NULL DEFAULT '',
	serial        TEXT NOT NULL,
	serial_year   TEXT NOT NULL DEFAULT '',
	page          TEXT NOT NULL,
	registered_at TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS registrations_encoded_key ON registrations (encoded);
CREATE UNIQUE INDEX IF NOT EXISTS registrations_reference_key ON registrations (reference);

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	category   TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	reference  TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	number     TEXT NOT NULL DEFAULT '',
	format     TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	client_ip  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS audit_events_reference_idx ON audit_events (reference);
CREATE INDEX IF NOT EXISTS audit_events_timestamp_idx ON audit_events (timestamp);
`

// PostgresContainer is the shared Postgres instance backing store
// integration tests.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres, connects, and applies the schema.
// Cleanup is left to Ryuk; the container is shared across suites through
// the Manager.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("registrar"),
		tcpostgres.WithUsername("registrar"),
		tcpostgres.WithPassword("registrar"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables. Call between tests for
// isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
