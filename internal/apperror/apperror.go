// Package apperror defines the canonical error taxonomy shared by every transport.
//
// Each domain failure is an *AppError carrying a stable Name and a
// human-readable Message. Both the REST handlers and the GraphQL resolvers
// call Payload to render the same {message, name} pair for a given error, so
// a client sees identical error bodies regardless of which API it uses.
//
// Identity is checked with errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperror.ErrNoteNotFound) { ... }
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoteNotFound       = errors.New("note not found")
	ErrUnfinishedNote     = errors.New("unfinished note")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("Validation Error")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Stable error names. These are part of the public API contract.
const (
	NameNoteNotFound       = "NoteNotFoundError"
	NameUnfinishedNote     = "UnfinishedNoteError"
	NameTokenExpired       = "TokenExpiredError"
	NameInvalidToken       = "InvalidTokenError"
	NameValidation         = "ValidationError"
	NameUserExists         = "UserAlreadyExistsError"
	NameInvalidCredentials = "InvalidCredentialsError"
	NameInternal           = "InternalServerError"
)

// InternalMessage is the body message for failures outside the taxonomy.
// Store and driver details never leak to clients.
const InternalMessage = "An internal error occurred"

type AppError struct {
	Err     error  // sentinel identifying the kind
	Name    string // stable error name, e.g. "NoteNotFoundError"
	Message string // human-readable error message
	ID      string // optional: id of the note the error refers to
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NoteNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrNoteNotFound,
		Name:    NameNoteNotFound,
		Message: fmt.Sprintf("Note with id %s not found", id),
		ID:      id,
	}
}

// UnfinishedNote is returned when a delete targets a note whose finished flag is false.
func UnfinishedNote(id string) *AppError {
	return &AppError{
		Err:     ErrUnfinishedNote,
		Name:    NameUnfinishedNote,
		Message: fmt.Sprintf("Note with id %s must be finished before it can be deleted", id),
		ID:      id,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:     ErrTokenExpired,
		Name:    NameTokenExpired,
		Message: "Token expired",
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Name:    NameInvalidToken,
		Message: "Invalid token",
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Name:    NameValidation,
		Message: message,
		Field:   field,
	}
}

func UserAlreadyExists(email string) *AppError {
	return &AppError{
		Err:     ErrUserExists,
		Name:    NameUserExists,
		Message: fmt.Sprintf("User with email %s already exists", email),
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Name:    NameInvalidCredentials,
		Message: "Invalid email or password",
	}
}

// ErrorBody is the JSON error envelope: the REST response body and the
// GraphQL `extensions` object.
type ErrorBody struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Payload maps err to its HTTP status and error body.
//
// Anything that is not an *AppError (store failures, context cancellation,
// bugs) maps to 500 with a generic message.
func Payload(err error) (int, ErrorBody) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorBody{Message: InternalMessage, Name: NameInternal}
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrNoteNotFound),
		errors.Is(err, ErrUnfinishedNote),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUserExists):
		status = http.StatusBadRequest
	}

	return status, ErrorBody{Message: appErr.Message, Name: appErr.Name}
}

// IsAuthFailure reports whether err is a session failure (expired or invalid
// token). Transports treat these as authentication failures ahead of any
// other error.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrInvalidToken)
}
