package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/auth"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/repository"
)

// PasswordHasher is the hash provider. The digest embeds its own salt.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) error
}

// TokenIssuer signs session tokens for a user ID.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	passwords PasswordHasher
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	passwords PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// SignUpInput is the registration form.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Lastname string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and returns an access token for it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (string, error) {
	email := NormalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", apperror.ValidationFailed("email", "a valid email is required")
	}
	if in.Password == "" {
		return "", apperror.ValidationFailed("password", "password is required")
	}
	if len(in.Password) > auth.MaxPasswordLength {
		return "", apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordLength))
	}
	name, lastname := strings.TrimSpace(in.Name), strings.TrimSpace(in.Lastname)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if lastname == "" {
		return "", apperror.ValidationFailed("lastname", "lastname is required")
	}

	digest, err := s.passwords.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: digest,
		Name:         name,
		Lastname:     lastname,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrUserExists) {
			s.logger.Error("failed to create user", slog.String("error", err.Error()))
		}
		return "", err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return token, nil
}

// SignIn verifies email and password and returns a fresh access token.
// Unknown emails and wrong passwords fail identically.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", apperror.InvalidCredentials()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperror.InvalidCredentials()
		}
		return "", fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", apperror.InvalidCredentials()
		}
		return "", fmt.Errorf("service/auth: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return token, nil
}
