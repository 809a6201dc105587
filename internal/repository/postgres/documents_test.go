package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/health-keeper/internal/errs"
	"github.com/and161185/health-keeper/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestDocumentStore_ReadAll(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewDocumentStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT body, version FROM documents WHERE name=\$1`).
		WithArgs("users").
		WillReturnRows(pgxmock.NewRows([]string{"body", "version"}).AddRow([]byte(`[{"id":"x"}]`), int64(4)))
	doc, err := s.ReadAll(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, int64(4), doc.Version)
	require.JSONEq(t, `[{"id":"x"}]`, string(doc.Body))

	mock.ExpectQuery(`SELECT body, version FROM documents WHERE name=\$1`).
		WithArgs("diagnosis_records").
		WillReturnError(pgx.ErrNoRows)
	doc, err = s.ReadAll(ctx, "diagnosis_records")
	require.NoError(t, err)
	require.Equal(t, repository.Document{}, doc)

	mock.ExpectQuery(`SELECT body, version FROM documents WHERE name=\$1`).
		WithArgs("users").
		WillReturnError(errors.New("conn reset"))
	_, err = s.ReadAll(ctx, "users")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_Commit_First(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewDocumentStore(db)
	ctx := context.Background()
	body := []byte(`[]`)

	mock.ExpectExec(`INSERT INTO documents \(name, body, version\) VALUES \(\$1, \$2, 1\)`).
		WithArgs("users", body).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	v, err := s.Commit(ctx, "users", repository.Document{Body: body})
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	// another writer created the row first
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("users", body).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = s.Commit(ctx, "users", repository.Document{Body: body})
	require.ErrorIs(t, err, errs.ErrVersionConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentStore_Commit_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewDocumentStore(db)
	ctx := context.Background()
	body := []byte(`[{"id":"a"}]`)

	mock.ExpectExec(`UPDATE documents SET body = \$2, version = version \+ 1, updated_at = now\(\) WHERE name = \$1 AND version = \$3`).
		WithArgs("users", body, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	v, err := s.Commit(ctx, "users", repository.Document{Body: body, Version: 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), v)

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("users", body, int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	_, err = s.Commit(ctx, "users", repository.Document{Body: body, Version: 3})
	require.ErrorIs(t, err, errs.ErrVersionConflict)

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("users", body, int64(3)).
		WillReturnError(errors.New("boom"))
	_, err = s.Commit(ctx, "users", repository.Document{Body: body, Version: 3})
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrVersionConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_PingAndClose(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	db.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}
