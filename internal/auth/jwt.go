// Package auth issues and validates session tokens and hashes passwords.
//
// SESSION TOKENS:
// A session is an HS256-signed JWT. Nothing is persisted server-side: the
// token itself carries the owning user ("sub") and the expiry instant ("exp").
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"<userID>","exp":1234567890,"iss":"notes-backend","jti":"<uuid>"}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// Validate is pure computation: no I/O, no side effects. It runs before any
// repository access on every protected operation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sakif/notes-backend/internal/apperror"
)

const (
	issuer = "notes-backend"

	// DefaultTokenTTL is the access token lifetime when none is configured.
	DefaultTokenTTL = 24 * time.Hour

	minSecretLength = 16
)

// TokenService signs and validates session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl selects DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLength)
	}
	if ttl < 0 {
		return nil, errors.New("auth: token TTL must not be negative")
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// claims is the JWT payload; "sub" holds the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate issues a token for userID that expires after the configured TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token with a custom lifetime.
// A negative duration yields an already expired token (used in tests).
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: user ID must not be empty")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token and returns the user ID it was issued for.
//
// Failures are always one of two domain errors:
//   - apperror.TokenExpired: well-formed and signed by us, but "exp" has passed
//   - apperror.InvalidToken: empty, malformed, wrong algorithm, wrong issuer,
//     bad signature, or missing subject/expiry
func (s *TokenService) Validate(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperror.InvalidToken()
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperror.TokenExpired()
		}
		return "", apperror.InvalidToken()
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", apperror.InvalidToken()
	}
	return c.Subject, nil
}
