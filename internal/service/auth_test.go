package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sakif/notes-backend/internal/apperror"
	"github.com/sakif/notes-backend/internal/auth"
	"github.com/sakif/notes-backend/internal/model"
	"github.com/sakif/notes-backend/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
type fakeUserRepo struct {
	byEmail map[string]*model.User
	nextID  int
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return apperror.UserAlreadyExists(user.Email)
	}
	f.nextID++
	user.ID = "user-" + string(rune('0'+f.nextID))
	copied := *user
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// newTestAuthService returns an AuthService wired with the real token and
// password services. Cost 4 is the bcrypt minimum.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps, err := auth.NewPasswordService(4)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(repo, ts, ps, logger), ts
}

func validSignUp() SignUpInput {
	return SignUpInput{
		Email:    "Ada@Example.com ",
		Password: "correct horse",
		Name:     "Ada",
		Lastname: "Lovelace",
	}
}

// =========================================================================
// SignUp TESTS
// =========================================================================

func TestSignUp_IssuesTokenForNewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	token, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	stored, ok := repo.byEmail["ada@example.com"]
	if !ok {
		t.Fatal("user should be stored under the normalized email")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "correct horse" {
		t.Errorf("password must be stored hashed, got %q", stored.PasswordHash)
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != stored.ID {
		t.Errorf("token subject = %q, want %q", userID, stored.ID)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.SignUp(context.Background(), validSignUp()); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}

	again := validSignUp()
	again.Email = "ADA@example.com"
	_, err := svc.SignUp(context.Background(), again)
	if !errors.Is(err, apperror.ErrUserExists) {
		t.Fatalf("second SignUp() error = %v, want ErrUserExists", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*SignUpInput)
		field string
	}{
		{"empty email", func(in *SignUpInput) { in.Email = "" }, "email"},
		{"malformed email", func(in *SignUpInput) { in.Email = "not-an-email" }, "email"},
		{"empty password", func(in *SignUpInput) { in.Password = "" }, "password"},
		{"long password", func(in *SignUpInput) { in.Password = strings.Repeat("p", auth.MaxPasswordLength+1) }, "password"},
		{"empty name", func(in *SignUpInput) { in.Name = "  " }, "name"},
		{"empty lastname", func(in *SignUpInput) { in.Lastname = "" }, "lastname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc, _ := newTestAuthService(t, repo)

			in := validSignUp()
			tt.edit(&in)
			_, err := svc.SignUp(context.Background(), in)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("SignUp() error = %v, want validation error", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(repo.byEmail) != 0 {
				t.Error("invalid sign-up must not store a user")
			}
		})
	}
}

func TestSignUp_RepositoryError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("database is on fire")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.SignUp(context.Background(), validSignUp())
	if !errors.Is(err, repo.createErr) {
		t.Fatalf("SignUp() error = %v, want repository error", err)
	}
}

// =========================================================================
// SignIn TESTS
// =========================================================================

func TestSignIn_RoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	if _, err := svc.SignUp(context.Background(), validSignUp()); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	token, err := svc.SignIn(context.Background(), " ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != repo.byEmail["ada@example.com"].ID {
		t.Errorf("token subject = %q, want the signed-up user", userID)
	}
}

func TestSignIn_BadCredentialsLookAlike(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.SignUp(context.Background(), validSignUp()); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "ada@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "correct horse"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), tt.email, tt.password)
			if !errors.Is(err, apperror.ErrInvalidCredentials) {
				t.Fatalf("SignIn() error = %v, want ErrInvalidCredentials", err)
			}
			if err.Error() != "Invalid email or password" {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}
