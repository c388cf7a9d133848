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

var _ repository.UserRepository = (*Store)(nil)

// CreateUser inserts user, assigning its ID and CreatedAt in place.
// A taken email is reported as apperror.UserAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = s.timestamp()

	err := database.WithTx(ctx, s.db, func(ctx context.Context, tx *database.Tx) error {
		var taken int
		err := tx.QueryRow(ctx, database.Query{
			Text:   `SELECT COUNT(*) FROM users WHERE email = ?`,
			Values: []any{user.Email},
		}, &taken)
		if err != nil {
			return err
		}
		if taken > 0 {
			return apperror.UserAlreadyExists(user.Email)
		}

		_, err = tx.Exec(ctx, database.Query{
			Text: `INSERT INTO users (id, email, password_hash, name, lastname, created_at)
			       VALUES (?, ?, ?, ?, ?, ?)`,
			Values: []any{user.ID, user.Email, user.PasswordHash, user.Name, user.Lastname, user.CreatedAt},
		})
		// A concurrent sign-up can still win the race between the check and the insert.
		if err != nil && database.IsUniqueViolation(err) {
			return apperror.UserAlreadyExists(user.Email)
		}
		return err
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("sqlstore: inserting user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the account with the given normalized email, or
// repository.ErrUserNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := database.WithTxResult(ctx, s.db, func(ctx context.Context, tx *database.Tx) (*model.User, error) {
		var u model.User
		err := tx.QueryRow(ctx, database.Query{
			Text: `SELECT id, email, password_hash, name, lastname, created_at
			       FROM users WHERE email = ?`,
			Values: []any{email},
		}, &u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Lastname, &u.CreatedAt)
		if err != nil {
			return nil, err
		}
		return &u, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("sqlstore: getting user by email: %w", err)
	}
	return user, nil
}
