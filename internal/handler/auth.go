package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-backend/internal/service"
)

// Authenticator is the account side of the service layer.
type Authenticator interface {
	SignUp(ctx context.Context, in service.SignUpInput) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}

// AuthHandler serves sign-up and sign-in.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// TokenResponse is the body returned by both endpoints.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers an account and returns its first token.
//
// HTTP: POST /sign-up
// REQUEST BODY: {"email": "...", "password": "...", "name": "...", "lastname": "..."}
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.auth.SignUp(r.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Lastname: req.Lastname,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

// HandleSignIn exchanges email and password for a token.
//
// HTTP: POST /sign-in
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}
