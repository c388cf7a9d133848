package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/database"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/repository"
)

var _ repository.NoteRepository = (*Store)(nil)

const noteColumns = `id, user_id, title, description, finished, created_at`

// Insert creates a note owned by userID with finished=false.
//
// IDs come from xid: 20 URL-safe characters that sort by creation time.
func (s *Store) Insert(ctx context.Context, userID, title, description string) (*model.Note, error) {
	note := &model.Note{
		ID:          xid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Finished:    false,
		CreatedAt:   s.timestamp(),
	}

	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *database.Tx) error {
		_, err := tx.Exec(ctx, database.Query{
			Text: `INSERT INTO notes (` + noteColumns + `)
			       VALUES (?, ?, ?, ?, ?, ?)`,
			Values: []any{note.ID, note.UserID, note.Title, note.Description, note.Finished, note.CreatedAt},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: inserting note: %w", err)
	}
	return note, nil
}

// FindPage returns opts.Limit notes starting at row opts.Page*opts.Limit,
// ordered by creation. One extra row is fetched to learn whether a next
// page exists.
func (s *Store) FindPage(ctx context.Context, userID string, opts repository.PageOptions) (*repository.NotePage, error) {
	if opts.Page < 0 || opts.Limit <= 0 {
		return nil, fmt.Errorf("sqlstore: invalid page options page=%d limit=%d", opts.Page, opts.Limit)
	}

	notes, err := database.WithTxResult(ctx, s.db, func(ctx context.Context, tx *database.Tx) ([]model.Note, error) {
		rows, err := tx.Query(ctx, database.Query{
			Text: `SELECT ` + noteColumns + `
			       FROM notes
			       WHERE user_id = ?
			       ORDER BY created_at ASC, id ASC
			       LIMIT ? OFFSET ?`,
			Values: []any{userID, opts.Limit + 1, opts.Page * opts.Limit},
		})
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		notes := make([]model.Note, 0, opts.Limit+1)
		for rows.Next() {
			var n model.Note
			if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &n.Finished, &n.CreatedAt); err != nil {
				return nil, &database.QueryError{Op: "scanning note row", Err: err}
			}
			notes = append(notes, n)
		}
		if err := rows.Err(); err != nil {
			return nil, &database.QueryError{Op: "iterating notes", Err: err}
		}
		return notes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing notes for user %s: %w", userID, err)
	}

	page := &repository.NotePage{
		Notes:       notes,
		HasPrevious: opts.Page > 0,
	}
	if len(notes) > opts.Limit {
		page.Notes = notes[:opts.Limit]
		page.HasNext = true
	}
	return page, nil
}

// FindByID returns the note if it exists and belongs to userID.
func (s *Store) FindByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	note, err := database.WithTxResult(ctx, s.db, func(ctx context.Context, tx *database.Tx) (*model.Note, error) {
		return findNote(ctx, tx, userID, noteID)
	})
	if err != nil {
		return nil, wrapNoteErr("finding", noteID, err)
	}
	return note, nil
}

// SetFinished overwrites the finished flag and returns the updated row.
func (s *Store) SetFinished(ctx context.Context, userID, noteID string, finished bool) (*model.Note, error) {
	note, err := database.WithTxResult(ctx, s.db, func(ctx context.Context, tx *database.Tx) (*model.Note, error) {
		n, err := tx.Exec(ctx, database.Query{
			Text:   `UPDATE notes SET finished = ? WHERE id = ? AND user_id = ?`,
			Values: []any{finished, noteID, userID},
		})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperror.NoteNotFound(noteID)
		}
		return findNote(ctx, tx, userID, noteID)
	})
	if err != nil {
		return nil, wrapNoteErr("updating", noteID, err)
	}
	return note, nil
}

// Delete removes a finished note.
//
// The read, the finished check and the delete share one bracket. The DELETE
// also carries the finished condition, so a note that was un-finished or
// removed by a concurrent bracket after our read is never deleted; the row is
// then re-read to report which of the two happened.
func (s *Store) Delete(ctx context.Context, userID, noteID string) error {
	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *database.Tx) error {
		note, err := findNote(ctx, tx, userID, noteID)
		if err != nil {
			return err
		}
		if !note.Finished {
			return apperror.UnfinishedNote(noteID)
		}

		n, err := tx.Exec(ctx, database.Query{
			Text:   `DELETE FROM notes WHERE id = ? AND user_id = ? AND finished = ?`,
			Values: []any{noteID, userID, true},
		})
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}

		current, err := findNote(ctx, tx, userID, noteID)
		if err != nil {
			return err
		}
		if !current.Finished {
			return apperror.UnfinishedNote(noteID)
		}
		return fmt.Errorf("sqlstore: note %s still finished but not deleted", noteID)
	})
	if err != nil {
		return wrapNoteErr("deleting", noteID, err)
	}
	return nil
}

// findNote reads one note inside an open bracket, enforcing ownership.
func findNote(ctx context.Context, tx *database.Tx, userID, noteID string) (*model.Note, error) {
	var n model.Note
	err := tx.QueryRow(ctx, database.Query{
		Text: `SELECT ` + noteColumns + `
		       FROM notes
		       WHERE id = ? AND user_id = ?`,
		Values: []any{noteID, userID},
	}, &n.ID, &n.UserID, &n.Title, &n.Description, &n.Finished, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NoteNotFound(noteID)
		}
		return nil, err
	}
	return &n, nil
}

// wrapNoteErr passes domain errors through untouched and adds context to
// store failures.
func wrapNoteErr(op, noteID string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("sqlstore: %s note %s: %w", op, noteID, err)
}
