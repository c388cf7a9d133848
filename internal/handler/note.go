package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/auth"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/service"
)

// NoteUseCases is the note side of the service layer. Every call takes the
// raw credential; the service validates it.
type NoteUseCases interface {
	Authenticate(token string) error
	Create(ctx context.Context, token, title, description string) (*model.Note, error)
	List(ctx context.Context, token string, page, limit int) (*model.PaginatedNotes, error)
	Get(ctx context.Context, token, id string) (*model.Note, error)
	SetFinished(ctx context.Context, token, id string, finished bool) (*model.Note, error)
	Delete(ctx context.Context, token, id string) error
}

// NoteHandler serves the note endpoints.
//
// The credential is read from the request context, where
// auth.CaptureCredential left it. Each handler runs the session check before
// it reads the body or headers, so a bad session always answers 401.
type NoteHandler struct {
	notes  NoteUseCases
	logger *slog.Logger
}

func NewNoteHandler(notes NoteUseCases, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

// session returns the request's credential once it has passed the session
// check. On failure the error is written and ok is false.
func (h *NoteHandler) session(w http.ResponseWriter, r *http.Request) (token string, ok bool) {
	token = auth.CredentialFromContext(r.Context())
	if err := h.notes.Authenticate(token); err != nil {
		writeError(w, h.logger, err)
		return "", false
	}
	return token, true
}

type createNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateFinishedRequest struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
}

type deleteNoteRequest struct {
	ID string `json:"id"`
}

// FindNotesResponse wraps one page of notes.
type FindNotesResponse struct {
	PaginatedNotes *model.PaginatedNotes `json:"paginatedNotes"`
}

// HandleCreate stores a new note.
//
// HTTP: POST /create-note
// REQUEST BODY: {"title": "...", "description": "..."}
func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	note, err := h.notes.Create(r.Context(), token, req.Title, req.Description)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleFind returns one page of the caller's notes.
//
// HTTP: GET /find-notes
// HEADERS: page (default 0), limit (default 10)
//
// The window travels in headers, not the query string.
func (h *NoteHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	page, err := intHeader(r, "page", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := intHeader(r, "limit", service.DefaultPageLimit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.notes.List(r.Context(), token, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, FindNotesResponse{PaginatedNotes: result})
}

// HandleGetByID returns a single note.
//
// HTTP: GET /find-note/{id}
func (h *NoteHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Get(r.Context(), token, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleUpdateFinished overwrites a note's finished flag.
//
// HTTP: PATCH /update-finished-note
// REQUEST BODY: {"id": "...", "finished": true}
func (h *NoteHandler) HandleUpdateFinished(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateFinishedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	note, err := h.notes.SetFinished(r.Context(), token, req.ID, req.Finished)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// HandleDelete removes a finished note.
//
// HTTP: DELETE /delete-note
// REQUEST BODY: {"id": "..."}
func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	var req deleteNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.notes.Delete(r.Context(), token, req.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intHeader parses a non-negative decimal header, or returns def when absent.
func intHeader(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.Header.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" header must be an integer")
	}
	return v, nil
}
