package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mystrymsg/internal/models"
)

func TestAuthService_PasswordRoundTrip(t *testing.T) {
	svc := &authService{secret: []byte(testSecret), ttl: time.Hour, cost: bcrypt.MinCost}

	hash, err := svc.HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, svc.CheckPassword(hash, "s3cret!"))
	assert.False(t, svc.CheckPassword(hash, "wrong"))
	assert.False(t, svc.CheckPassword("not-a-hash", "s3cret!"))
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)
	acc := &models.Account{ID: "a-1", Username: "alice", Email: "a@x.com", IsVerified: true, IsAcceptingMessages: true}

	token, exp, err := svc.IssueToken(acc)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, &models.Principal{
		ID: "a-1", Username: "alice", Email: "a@x.com", IsVerified: true, IsAcceptingMessages: true,
	}, claims.Principal())
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)
	acc := &models.Account{ID: "a-1", Username: "alice"}

	other := NewAuthService("another-secret-0123456789", time.Hour)
	foreign, _, err := other.IssueToken(acc)
	require.NoError(t, err)

	expired := NewAuthService(testSecret, -time.Hour)
	old, _, err := expired.IssueToken(acc)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{AccountID: "a-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not.a.token",
		"other secret": foreign,
		"expired":      old,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
