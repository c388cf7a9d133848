// Package service holds the business rules, between the transports and the
// repositories:
//
//	REST handler / GraphQL resolver → NoteService → NoteRepository → database
//	                                ↘ SessionValidator (JWT)
//
// Every NoteService method checks the session first. A call with an invalid
// or expired token returns before the repository is touched. Domain errors
// from the validator and the repository are returned unchanged, so both
// transports can match the same error identity.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/repository"
)

const (
	MaxTitleLength   = 255
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// SessionValidator proves a bearer credential and returns its user ID.
// It fails with apperror.InvalidToken or apperror.TokenExpired.
type SessionValidator interface {
	Validate(token string) (string, error)
}

// NoteService implements the note use cases.
type NoteService struct {
	sessions SessionValidator
	notes    repository.NoteRepository
	logger   *slog.Logger
}

func NewNoteService(sessions SessionValidator, notes repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		sessions: sessions,
		notes:    notes,
		logger:   logger,
	}
}

func (s *NoteService) authenticate(token string) (string, error) {
	return s.sessions.Validate(token)
}

// Authenticate runs the session check alone. Transports call it before
// parsing a request so a bad session outranks a bad body.
func (s *NoteService) Authenticate(token string) error {
	_, err := s.authenticate(token)
	return err
}

// logStoreFailure logs errors outside the domain taxonomy. Domain errors
// are expected outcomes and are not logged.
func (s *NoteService) logStoreFailure(msg, userID, noteID string, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return
	}
	s.logger.Error(msg,
		slog.String("id", noteID),
		slog.String("userID", userID),
		slog.String("error", err.Error()),
	)
}

// Create stores a new, unfinished note for the token's user.
func (s *NoteService) Create(ctx context.Context, token, title, description string) (*model.Note, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "note title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("note title must be %d characters or less", MaxTitleLength))
	}

	note, err := s.notes.Insert(ctx, userID, title, description)
	if err != nil {
		s.logger.Error("failed to create note",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("note created",
		slog.String("id", note.ID),
		slog.String("userID", userID),
	)
	return note, nil
}

// List returns one page of the user's notes in creation order.
// Previous/Next are the neighbouring page numbers, or nil when absent.
func (s *NoteService) List(ctx context.Context, token string, page, limit int) (*model.PaginatedNotes, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	if page < 0 {
		return nil, apperror.ValidationFailed("page", "page must be zero or greater")
	}
	if limit < 1 || limit > MaxPageLimit {
		return nil, apperror.ValidationFailed("limit",
			fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}

	result, err := s.notes.FindPage(ctx, userID, repository.PageOptions{Page: page, Limit: limit})
	if err != nil {
		s.logger.Error("failed to list notes",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	out := &model.PaginatedNotes{Notes: result.Notes}
	if out.Notes == nil {
		out.Notes = []model.Note{}
	}
	if result.HasPrevious {
		prev := page - 1
		out.Previous = &prev
	}
	if result.HasNext {
		next := page + 1
		out.Next = &next
	}
	return out, nil
}

// Get returns one note owned by the token's user.
func (s *NoteService) Get(ctx context.Context, token, id string) (*model.Note, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	note, err := s.notes.FindByID(ctx, userID, id)
	if err != nil {
		s.logStoreFailure("failed to find note", userID, id, err)
		return nil, err
	}
	return note, nil
}

// SetFinished overwrites the finished flag. It may be toggled freely.
func (s *NoteService) SetFinished(ctx context.Context, token, id string, finished bool) (*model.Note, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.ValidationFailed("id", "note ID is required")
	}

	note, err := s.notes.SetFinished(ctx, userID, id, finished)
	if err != nil {
		s.logStoreFailure("failed to update note", userID, id, err)
		return nil, err
	}

	s.logger.Info("note finished flag updated",
		slog.String("id", id),
		slog.Bool("finished", finished),
	)
	return note, nil
}

// Delete removes a note. Only finished notes can be deleted; an unfinished
// note fails with apperror.UnfinishedNote and is left as it was.
func (s *NoteService) Delete(ctx context.Context, token, id string) error {
	userID, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if id = strings.TrimSpace(id); id == "" {
		return apperror.ValidationFailed("id", "note ID is required")
	}

	if err := s.notes.Delete(ctx, userID, id); err != nil {
		s.logStoreFailure("failed to delete note", userID, id, err)
		return err
	}

	s.logger.Info("note deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}
