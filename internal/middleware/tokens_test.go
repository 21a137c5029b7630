package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour, "userhub", nil)

	token, expiresAt, err := m.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.AccountID)
	assert.Equal(t, "userhub", claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour, "userhub", nil)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { m.now = time.Now }()
		_, err := m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AccountID: 42}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenManager_Revoke(t *testing.T) {
	db, mock := redismock.NewClientMock()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("test-secret", time.Hour, "userhub", db)
	m.now = func() time.Time { return now }

	claims := &Claims{AccountID: 1, RegisteredClaims: jwt.RegisteredClaims{
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
	}}

	mock.ExpectSet("jwt:blacklist:jti-1", 1, 30*time.Minute).SetVal("OK")
	require.NoError(t, m.Revoke(context.Background(), claims))

	mock.ExpectExists("jwt:blacklist:jti-1").SetVal(1)
	revoked, err := m.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("jwt:blacklist:jti-2").SetErr(errors.New("connection refused"))
	_, err = m.IsRevoked(context.Background(), "jti-2")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())

	t.Run("without redis revocation is a no-op", func(t *testing.T) {
		nm := NewTokenManager("s", time.Hour, "userhub", nil)
		assert.NoError(t, nm.Revoke(context.Background(), claims))
		revoked, err := nm.IsRevoked(context.Background(), "jti-1")
		assert.NoError(t, err)
		assert.False(t, revoked)
	})
}
