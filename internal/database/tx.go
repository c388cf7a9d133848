package database

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrTxOpen       = errors.New("database: transaction already open")
	ErrNoTx         = errors.New("database: no open transaction")
	ErrClientClosed = errors.New("database: client closed")
)

// Query is a parameterized statement. Text uses `?` placeholders; Values are
// bound positionally.
type Query struct {
	Text   string
	Values []any
}

// Tx is one transactional client: a connection checked out of the pool plus
// at most one open transaction on it. Nested transactions are not supported.
//
// A Tx is not safe for concurrent use. Statements run sequentially.
type Tx struct {
	db   *DB
	conn *sql.Conn
	tx   *sql.Tx
}

// Client checks a connection out of the pool.
// The caller must call Close, which releases it.
func (db *DB) Client(ctx context.Context) (*Tx, error) {
	conn, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, &QueryError{Op: "acquiring connection", Err: err}
	}
	return &Tx{db: db, conn: conn}, nil
}

// Begin opens a transaction on the client's connection.
func (t *Tx) Begin(ctx context.Context, opts *sql.TxOptions) error {
	if t.conn == nil {
		return ErrClientClosed
	}
	if t.tx != nil {
		return ErrTxOpen
	}

	tx, err := t.conn.BeginTx(ctx, opts)
	if err != nil {
		return &QueryError{Op: "beginning transaction", Err: err}
	}
	t.tx = tx
	return nil
}

// Query runs a statement that returns rows. The caller closes the rows
// before issuing the next statement.
func (t *Tx) Query(ctx context.Context, q Query) (*sql.Rows, error) {
	if t.tx == nil {
		return nil, ErrNoTx
	}
	rows, err := t.tx.QueryContext(ctx, t.db.dialect.Rebind(q.Text), q.Values...)
	if err != nil {
		return nil, &QueryError{Op: "query", Err: err}
	}
	return rows, nil
}

// QueryRow runs a statement expected to return one row and scans it into dest.
// sql.ErrNoRows is returned as is; every other failure is a *QueryError.
func (t *Tx) QueryRow(ctx context.Context, q Query, dest ...any) error {
	if t.tx == nil {
		return ErrNoTx
	}
	err := t.tx.QueryRowContext(ctx, t.db.dialect.Rebind(q.Text), q.Values...).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return &QueryError{Op: "query row", Err: err}
	}
	return nil
}

// Exec runs a statement and returns the number of affected rows.
func (t *Tx) Exec(ctx context.Context, q Query) (int64, error) {
	if t.tx == nil {
		return 0, ErrNoTx
	}
	res, err := t.tx.ExecContext(ctx, t.db.dialect.Rebind(q.Text), q.Values...)
	if err != nil {
		return 0, &QueryError{Op: "exec", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &QueryError{Op: "rows affected", Err: err}
	}
	return n, nil
}

// Commit makes every statement since Begin durable, all or nothing.
func (t *Tx) Commit() error {
	if t.tx == nil {
		return ErrNoTx
	}
	tx := t.tx
	t.tx = nil
	if err := tx.Commit(); err != nil {
		return &QueryError{Op: "commit", Err: err}
	}
	return nil
}

// Close rolls back a transaction that was never committed and returns the
// connection to the pool. It is safe to call more than once.
func (t *Tx) Close() error {
	var rbErr error
	if t.tx != nil {
		// A cancelled context already rolled the transaction back.
		if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rbErr = &QueryError{Op: "rollback", Err: err}
		}
		t.tx = nil
	}

	if t.conn != nil {
		if err := t.conn.Close(); err != nil && rbErr == nil && !errors.Is(err, sql.ErrConnDone) {
			rbErr = &QueryError{Op: "releasing connection", Err: err}
		}
		t.conn = nil
	}
	return rbErr
}

// WithTx runs fn inside one transaction: it acquires a client, begins, and
// commits if fn returns nil. On error or panic the transaction is rolled back;
// panics are rethrown. The connection is released on every path.
//
// Typical use:
//
//	err := database.WithTx(ctx, db, func(ctx context.Context, tx *database.Tx) error {
//	    _, err := tx.Exec(ctx, database.Query{Text: "UPDATE ...", Values: []any{id}})
//	    return err
//	})
func WithTx(ctx context.Context, db *DB, fn func(ctx context.Context, tx *Tx) error) (err error) {
	tx, err := db.Client(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Close()
			panic(p)
		}
		if cerr := tx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = tx.Begin(ctx, nil); err != nil {
		return err
	}
	if err = fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// WithTxResult is WithTx for units of work that produce a value.
func WithTxResult[T any](ctx context.Context, db *DB, fn func(ctx context.Context, tx *Tx) (T, error)) (T, error) {
	var out T
	err := WithTx(ctx, db, func(ctx context.Context, tx *Tx) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
