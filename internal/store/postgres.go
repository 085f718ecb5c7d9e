// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"loan-origination/internal/models"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS applications (
    id              TEXT PRIMARY KEY,
    current_stage   TEXT NOT NULL,
    status          TEXT NOT NULL,
    version         BIGINT NOT NULL,
    idempotency_key TEXT UNIQUE,
    document        JSONB NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS application_events (
    id             BIGSERIAL PRIMARY KEY,
    application_id TEXT NOT NULL REFERENCES applications(id),
    stage          TEXT NOT NULL,
    status         TEXT NOT NULL,
    reason         TEXT,
    attempt        INT NOT NULL,
    actor          TEXT NOT NULL,
    version        BIGINT NOT NULL,
    occurred_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS application_events_application_id_idx ON application_events (application_id);
`

const (
	insertApplicationSQL = `INSERT INTO applications (id, current_stage, status, version, idempotency_key, document, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	updateApplicationSQL = `UPDATE applications SET current_stage = $1, status = $2, version = $3, document = $4, updated_at = $5 WHERE id = $6 AND version = $7`
	selectByIDSQL        = `SELECT document, version FROM applications WHERE id = $1`
	selectByKeySQL       = `SELECT document, version FROM applications WHERE idempotency_key = $1`
	existsSQL            = `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`
	insertEventSQL       = `INSERT INTO application_events (application_id, stage, status, reason, attempt, actor, version, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// PostgresStore persists each application as one JSONB row guarded by a version column,
// and mirrors stage events into application_events.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	app.Version = 1
	doc, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertApplicationSQL,
			app.ID, string(app.CurrentStage), string(app.CurrentStatus()), app.Version,
			nullable(app.IdempotencyKey), doc, app.CreatedAt, app.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				if app.IdempotencyKey != "" && pqErr.Constraint != "applications_pkey" {
					return fmt.Errorf("%w: %s", ErrDuplicateIdempotencyKey, app.IdempotencyKey)
				}
				return fmt.Errorf("%w: %s", ErrDuplicateApplication, app.ID)
			}
			return fmt.Errorf("insert application: %w", err)
		}
		return insertEvents(ctx, tx, app.History, 0)
	})
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.scan(s.db.QueryRowContext(ctx, selectByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrApplicationNotFound, id)
	}
	return app, err
}

func (s *PostgresStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Application, error) {
	app, err := s.scan(s.db.QueryRowContext(ctx, selectByKeySQL, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: idempotency key %s", ErrApplicationNotFound, key)
	}
	return app, err
}

func (s *PostgresStore) Update(ctx context.Context, app *models.Application, expectedVersion int64) error {
	next := *app
	next.Version = expectedVersion + 1
	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, updateApplicationSQL,
			string(next.CurrentStage), string(next.CurrentStatus()), next.Version, doc, next.UpdatedAt,
			next.ID, expectedVersion)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, existsSQL, next.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check application: %w", err)
			}
			if !exists {
				return fmt.Errorf("%w: %s", ErrApplicationNotFound, next.ID)
			}
			return fmt.Errorf("%w: %s expected version %d", ErrConcurrentModification, next.ID, expectedVersion)
		}
		return insertEvents(ctx, tx, next.History, expectedVersion)
	})
	if err != nil {
		return err
	}
	app.Version = next.Version
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) scan(row *sql.Row) (*models.Application, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select application: %w", err)
	}

	var app models.Application
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	app.Version = version
	return &app, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// insertEvents appends history entries recorded after version since.
func insertEvents(ctx context.Context, tx *sql.Tx, history []models.StageEvent, since int64) error {
	for _, ev := range history {
		if ev.Version <= since {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertEventSQL,
			ev.ApplicationID, string(ev.Stage), string(ev.Status), ev.Reason, ev.Attempt, ev.Actor, ev.Version, ev.OccurredAt); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
