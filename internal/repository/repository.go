// Package repository declares the storage contracts the services depend on.
// Every method runs inside exactly one database transaction bracket.
package repository

import (
	"context"
	"errors"

	"github.com/sakif/notes-backend/internal/model"
)

// ErrUserNotFound is returned by UserRepository lookups that match no account.
var ErrUserNotFound = errors.New("user not found")

// PageOptions selects a window of a user's notes: `Limit` rows starting at
// row `Page*Limit`, in creation order.
type PageOptions struct {
	Page  int
	Limit int
}

// NotePage is one window of notes plus whether rows exist on either side.
type NotePage struct {
	Notes       []model.Note
	HasPrevious bool
	HasNext     bool
}

// NoteRepository stores notes scoped to their owner. A note whose owner does
// not match userID is reported as not found, never returned.
type NoteRepository interface {
	Insert(ctx context.Context, userID, title, description string) (*model.Note, error)
	FindPage(ctx context.Context, userID string, opts PageOptions) (*NotePage, error)
	FindByID(ctx context.Context, userID, noteID string) (*model.Note, error)
	SetFinished(ctx context.Context, userID, noteID string, finished bool) (*model.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}

// UserRepository stores accounts. Emails are expected already normalized.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
