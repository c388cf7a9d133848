package graphql

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/sakif/notes-backend/internal/apperror"
)

const maxBodyBytes = 1 << 20

// Request is the standard GraphQL-over-HTTP POST body.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler executes GraphQL requests against a schema.
type Handler struct {
	schema gql.Schema
	logger *slog.Logger
}

func NewHandler(schema gql.Schema, logger *slog.Logger) *Handler {
	return &Handler{schema: schema, logger: logger}
}

// ServeHTTP runs one operation.
//
// HTTP: POST /graphql
//
// Results are 200 even when errors[] is present, except for session
// failures: an expired or invalid token answers 401.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeResult(w, h.logger, http.StatusBadRequest, &gql.Result{
			Errors: []gqlerrors.FormattedError{
				formatError(apperror.ValidationFailed("body", "request body must be valid JSON")),
			},
		})
		return
	}

	ctx, o := withOutcome(r.Context())
	result := gql.Do(gql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	status := http.StatusOK
	if o.authFailed.Load() {
		status = http.StatusUnauthorized
	}
	writeResult(w, h.logger, status, result)
}

// formatError renders an error raised outside execution the way resolver
// errors are rendered.
func formatError(err error) gqlerrors.FormattedError {
	re := newResolverError(err)
	return gqlerrors.FormattedError{
		Message:    re.Error(),
		Extensions: re.Extensions(),
	}
}

type outcomeKey struct{}

// outcome collects what resolvers observed during one request.
type outcome struct {
	authFailed atomic.Bool
}

func withOutcome(ctx context.Context) (context.Context, *outcome) {
	o := &outcome{}
	return context.WithValue(ctx, outcomeKey{}, o), o
}

func outcomeFrom(ctx context.Context) *outcome {
	o, _ := ctx.Value(outcomeKey{}).(*outcome)
	return o
}

func writeResult(w http.ResponseWriter, logger *slog.Logger, status int, result *gql.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Error("failed to encode GraphQL response", slog.String("error", err.Error()))
	}
}
