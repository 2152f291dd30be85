package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unisphere/exam-gateway/internal/config"
)

func newTestIssuer(secret string, expiry time.Duration) *AttemptTokenIssuer {
	return NewAttemptTokenIssuer(&config.Config{
		AttemptTokenSecret: secret,
		AttemptTokenExpiry: expiry,
	})
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	issuer := newTestIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("attempt-123", "exam-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	attemptID, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "attempt-123", attemptID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	minted := newTestIssuer("secret-a", time.Hour)
	verifier := newTestIssuer("secret-b", time.Hour)

	token, err := minted.Issue("attempt-123", "exam-1")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidAttemptToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := newTestIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue("attempt-123", "exam-1")
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidAttemptToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := newTestIssuer("test-secret", time.Hour)

	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := issuer.Validate(bad)
		assert.ErrorIs(t, err, ErrInvalidAttemptToken, "input %q", bad)
	}
}

func TestScopeCarriesKindAndToken(t *testing.T) {
	student := NewStudentScope("tok-s")
	assert.Equal(t, ScopeStudent, student.Kind())
	assert.Equal(t, "tok-s", student.Token())
	assert.True(t, student.Valid())

	admin := NewAdminScope("tok-a")
	assert.Equal(t, ScopeAdmin, admin.Kind())

	empty := NewStudentScope("")
	assert.False(t, empty.Valid())
}
