// internal/store/postgres_test.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"loan-origination/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestPostgresStore_EnsureSchema(t *testing.T) {
	s, mock := setupPostgresStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS applications").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := setupPostgresStore(t)
	app := createTestApplication("app-1")

	mock.ExpectBegin()
	mock.ExpectExec(q(insertApplicationSQL)).
		WithArgs("app-1", "pre-qualification", "approved", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), testNow, testNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertEventSQL)).
		WithArgs("app-1", "pre-qualification", "approved", "", 1, "system", int64(1), testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Create(context.Background(), app))
	assert.Equal(t, int64(1), app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateDuplicateIdempotencyKey(t *testing.T) {
	s, mock := setupPostgresStore(t)
	app := createTestApplication("app-2")
	app.IdempotencyKey = "key-1"

	mock.ExpectBegin()
	mock.ExpectExec(q(insertApplicationSQL)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_idempotency_key_key"})
	mock.ExpectRollback()

	err := s.Create(context.Background(), app)
	assert.ErrorIs(t, err, ErrDuplicateIdempotencyKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := setupPostgresStore(t)
	doc, err := json.Marshal(createTestApplication("app-3"))
	require.NoError(t, err)

	mock.ExpectQuery(q(selectByIDSQL)).WithArgs("app-3").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).AddRow(doc, int64(4)))

	got, err := s.Get(context.Background(), "app-3")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, models.StatusApproved, got.CurrentStatus())
	assert.Equal(t, 780, got.CreditScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s, mock := setupPostgresStore(t)
	mock.ExpectQuery(q(selectByIDSQL)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestPostgresStore_GetStoreFailure(t *testing.T) {
	s, mock := setupPostgresStore(t)
	mock.ExpectQuery(q(selectByIDSQL)).WithArgs("app-x").WillReturnError(sql.ErrConnDone)

	_, err := s.Get(context.Background(), "app-x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.False(t, errors.Is(err, ErrApplicationNotFound))
}

func TestPostgresStore_FindByIdempotencyKey(t *testing.T) {
	s, mock := setupPostgresStore(t)
	doc, _ := json.Marshal(createTestApplication("app-4"))
	mock.ExpectQuery(q(selectByKeySQL)).WithArgs("key-9").
		WillReturnRows(sqlmock.NewRows([]string{"document", "version"}).AddRow(doc, int64(1)))

	got, err := s.FindByIdempotencyKey(context.Background(), "key-9")
	require.NoError(t, err)
	assert.Equal(t, "app-4", got.ID)
}

// ==========================
// Compare-And-Swap Tests
// ==========================

func TestPostgresStore_Update(t *testing.T) {
	s, mock := setupPostgresStore(t)
	app := createTestApplication("app-5")
	app.Version = 1
	advance(app)

	mock.ExpectBegin()
	mock.ExpectExec(q(updateApplicationSQL)).
		WithArgs("loan-application", "approved", int64(2), sqlmock.AnyArg(), app.UpdatedAt, "app-5", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(insertEventSQL)).
		WithArgs("app-5", "loan-application", "approved", "", 1, "system", int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Update(context.Background(), app, 1))
	assert.Equal(t, int64(2), app.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateVersionMismatch(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		want   error
	}{
		{"stale version", true, ErrConcurrentModification},
		{"row missing", false, ErrApplicationNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupPostgresStore(t)
			app := createTestApplication("app-6")
			advance(app)

			mock.ExpectBegin()
			mock.ExpectExec(q(updateApplicationSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(q(existsSQL)).WithArgs("app-6").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			mock.ExpectRollback()

			err := s.Update(context.Background(), app, 1)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int64(0), app.Version)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	assert.NoError(t, NewPostgresStore(db).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
