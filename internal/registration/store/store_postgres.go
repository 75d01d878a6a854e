package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"registrar/internal/registration/models"
	"registrar/pkg/certno"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
	txcontext "registrar/pkg/platform/tx"

	"github.com/google/uuid"
)

// PostgresStore persists registrations in PostgreSQL. The registrations
// table carries unique indexes on encoded and reference; those indexes, not
// the duplicate checker, are the authority for the one-number-one-application
// invariant. Writes join a transaction from the context when one is present
// so a registration and its audit trail commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registrationColumns = `id, reference, encoded, book, volume, volume_letter, volume_year, serial, serial_year, page, registered_at, created_at, updated_at`

// Create inserts a registration. A clash on the encoded number or the
// application reference returns sentinel.ErrAlreadyUsed; the insert is
// absorbed by ON CONFLICT DO NOTHING so concurrent losers see a clean error
// instead of an aborted transaction.
func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(reg.ID),
		reg.Reference.String(),
		reg.Encoded,
		reg.Number.Book,
		reg.Number.Volume,
		reg.Number.VolumeLetter,
		reg.Number.VolumeYear,
		reg.Number.Serial,
		reg.Number.SerialYear,
		reg.Number.Page,
		reg.RegisteredAt,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert registration rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

// FindByID returns the registration with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, regID id.RegistrationID) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(regID)))
}

// FindByNumber returns the registration holding the encoded certificate
// number.
func (s *PostgresStore) FindByNumber(ctx context.Context, encoded string) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE encoded = $1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, encoded))
}

// FindByReference returns the registration assigned to an application
// reference.
func (s *PostgresStore) FindByReference(ctx context.Context, ref id.Reference) (*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE reference = $1
	`
	return s.scanOne(s.execer(ctx).QueryRowContext(ctx, query, ref.String()))
}

// Count returns the number of stored registrations.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*models.Registration, error) {
	var (
		regID     uuid.UUID
		reference string
		reg       models.Registration
		number    certno.Number
	)

	err := row.Scan(
		&regID,
		&reference,
		&reg.Encoded,
		&number.Book,
		&number.Volume,
		&number.VolumeLetter,
		&number.VolumeYear,
		&number.Serial,
		&number.SerialYear,
		&number.Page,
		&reg.RegisteredAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.ID = id.RegistrationID(regID)
	reg.Reference = id.Reference(reference)
	reg.Number = number

	return &reg, nil
}
