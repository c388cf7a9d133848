package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	// File-backed: a connection discarded after a cancelled transaction must
	// not take the data with it, which an in-memory database would.
	db, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "tx.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		_, err := tx.Exec(ctx, Query{Text: `CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT UNIQUE)`})
		return err
	})
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *DB) int {
	t.Helper()
	n, err := WithTxResult(context.Background(), db, func(ctx context.Context, tx *Tx) (int, error) {
		var n int
		err := tx.QueryRow(ctx, Query{Text: `SELECT COUNT(*) FROM t`}, &n)
		return n, err
	})
	require.NoError(t, err)
	return n
}

func insert(ctx context.Context, tx *Tx, v string) error {
	_, err := tx.Exec(ctx, Query{Text: `INSERT INTO t(v) VALUES (?)`, Values: []any{v}})
	return err
}

// =========================================================================
// WithTx
// =========================================================================

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		return insert(ctx, tx, "ok")
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, insert(ctx, tx, "first"))
		require.NoError(t, insert(ctx, tx, "second"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countRows(t, db), "no partial writes after a failed step")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, insert(ctx, tx, "panic"))
		panic("kaput")
	})
}

func TestWithTx_ConstraintViolationIsQueryError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		if err := insert(ctx, tx, "dup"); err != nil {
			return err
		}
		return insert(ctx, tx, "dup")
	})

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.True(t, IsUniqueViolation(err))
	assert.Equal(t, 0, countRows(t, db))
}

func TestWithTx_CancelledContext(t *testing.T) {
	db := setupDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := WithTx(ctx, db, func(ctx context.Context, tx *Tx) error {
		called = true
		return nil
	})

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestWithTx_TimeoutMidTransactionRollsBack(t *testing.T) {
	db := setupDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := WithTx(ctx, db, func(ctx context.Context, tx *Tx) error {
		require.NoError(t, insert(ctx, tx, "before-timeout"))
		<-ctx.Done()
		return insert(ctx, tx, "after-timeout")
	})

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, 0, countRows(t, db), "timed out bracket must not leave partial writes")
}

func TestWithTxResult_ReturnsValue(t *testing.T) {
	db := setupDB(t)

	v, err := WithTxResult(context.Background(), db, func(ctx context.Context, tx *Tx) (string, error) {
		if err := insert(ctx, tx, "hello"); err != nil {
			return "", err
		}
		var out string
		err := tx.QueryRow(ctx, Query{Text: `SELECT v FROM t WHERE v = ?`, Values: []any{"hello"}}, &out)
		return out, err
	})
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

// =========================================================================
// Tx lifecycle
// =========================================================================

func TestTx_BeginTwiceFails(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	tx, err := db.Client(ctx)
	require.NoError(t, err)
	defer tx.Close()

	require.NoError(t, tx.Begin(ctx, nil))
	require.ErrorIs(t, tx.Begin(ctx, nil), ErrTxOpen)
}

func TestTx_StatementsRequireOpenTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	tx, err := db.Client(ctx)
	require.NoError(t, err)
	defer tx.Close()

	_, err = tx.Exec(ctx, Query{Text: `INSERT INTO t(v) VALUES ('x')`})
	require.ErrorIs(t, err, ErrNoTx)
	_, err = tx.Query(ctx, Query{Text: `SELECT v FROM t`})
	require.ErrorIs(t, err, ErrNoTx)
	require.ErrorIs(t, tx.Commit(), ErrNoTx)
}

func TestTx_CloseWithoutCommitRollsBack(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	tx, err := db.Client(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx, nil))
	require.NoError(t, insert(ctx, tx, "never-committed"))
	require.NoError(t, tx.Close())

	require.Equal(t, 0, countRows(t, db))
}

func TestTx_CloseIsIdempotent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	tx, err := db.Client(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Begin(ctx, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Close())
	require.NoError(t, tx.Close())
	require.ErrorIs(t, tx.Begin(ctx, nil), ErrClientClosed)
}

func TestTx_QueryRowNoRows(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, func(ctx context.Context, tx *Tx) error {
		var v string
		return tx.QueryRow(ctx, Query{Text: `SELECT v FROM t WHERE id = ?`, Values: []any{42}}, &v)
	})
	require.Error(t, err)
	var qe *QueryError
	require.False(t, errors.As(err, &qe), "no rows is not a store failure")
}

// =========================================================================
// Dialects and migrations
// =========================================================================

func TestRebind(t *testing.T) {
	q := `SELECT id FROM notes WHERE id = ? AND user_id = ? LIMIT ?`

	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `SELECT id FROM notes WHERE id = $1 AND user_id = $2 LIMIT $3`, Postgres.Rebind(q))
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", SQLite, false},
		{"SQLite", SQLite, false},
		{"postgres", Postgres, false},
		{"pgx", Postgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_ReportsDialect(t *testing.T) {
	db := setupDB(t)
	assert.Equal(t, SQLite, db.Dialect())
}

func TestMigrate_LogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	db, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "log.db"), Options{Logger: logger})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "component=migrations")
	assert.Contains(t, out, "00001_create_users_and_notes")
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "migrate.db"), Options{})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, db.Migrate(context.Background()))

	n, err := WithTxResult(context.Background(), db, func(ctx context.Context, tx *Tx) (int, error) {
		var n int
		err := tx.QueryRow(ctx, Query{Text: `SELECT COUNT(*) FROM notes`}, &n)
		return n, err
	})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
