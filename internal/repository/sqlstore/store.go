// Package sqlstore implements the repository interfaces on top of
// database.DB. It speaks both SQLite and PostgreSQL: statements are written
// with `?` placeholders and rebound by the transaction for the dialect.
//
// Every exported method is one bracket (database.WithTx). Nothing is cached
// between calls; each call observes the store as it is.
package sqlstore

import (
	"time"

	"github.com/sakif/notes-backend/internal/database"
)

// Store is the SQL-backed repository.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// New returns a Store over an opened, migrated database.
func New(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// timestamp is the creation instant written on insert: UTC, and truncated to
// the microsecond precision PostgreSQL keeps.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}
