package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/unisphere/exam-gateway/internal/config"
)

// ErrInvalidAttemptToken covers expired, malformed and mismatched tokens.
var ErrInvalidAttemptToken = errors.New("auth: invalid attempt token")

// AttemptClaims binds a browser to its in-memory exam attempt. The token ID
// is the attempt ID; the subject is the exam the attempt runs against.
type AttemptClaims struct {
	jwt.RegisteredClaims
}

// AttemptTokenIssuer mints and validates the gateway's own attempt tokens.
// Upstream bearer tokens stay opaque; this is the only JWT the gateway signs.
type AttemptTokenIssuer struct {
	secret []byte
	expiry time.Duration
}

// NewAttemptTokenIssuer creates an issuer from configuration.
func NewAttemptTokenIssuer(cfg *config.Config) *AttemptTokenIssuer {
	return &AttemptTokenIssuer{
		secret: []byte(cfg.AttemptTokenSecret),
		expiry: cfg.AttemptTokenExpiry,
	}
}

// Issue signs a token for an attempt.
func (i *AttemptTokenIssuer) Issue(attemptID, examID string) (string, error) {
	now := time.Now()
	claims := AttemptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        attemptID,
			Subject:   examID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign attempt token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and returns the attempt ID it names.
func (i *AttemptTokenIssuer) Validate(tokenStr string) (attemptID string, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AttemptClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAttemptToken, err)
	}

	claims, ok := token.Claims.(*AttemptClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return "", ErrInvalidAttemptToken
	}
	return claims.ID, nil
}
