package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so a success is
// always a JSON document and a failure is always the {message, name} body
// produced by apperror.Payload. The GraphQL adapter uses the same table,
// which keeps the two APIs' error bodies identical.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-backend/internal/apperror"
)

// maxBodyBytes caps request bodies. Notes are small.
const maxBodyBytes = 1 << 20

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError renders err through the shared mapping table.
//
// Anything outside the taxonomy becomes a 500 with a generic message; the
// underlying error is logged here and never sent to the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := apperror.Payload(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, body)
}

// decodeJSON reads one JSON object from the request body into dst.
// A malformed or missing body is a validation error.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
