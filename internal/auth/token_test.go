package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-123456"

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	token, issued, err := m.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, issued.ID)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, issued.ID, claims.ID)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestTokenManager_IssueRejectsEmptyInputs(t *testing.T) {
	_, _, err := NewTokenManager("", time.Hour).Issue(1)
	assert.Error(t, err)

	_, _, err = NewTokenManager(testSecret, time.Hour).Issue(0)
	assert.Error(t, err)
}

func TestTokenManager_VerifyFailsClosed(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	valid, _, err := m.Issue(7)
	require.NoError(t, err)

	expired := NewTokenManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue(7)
	require.NoError(t, err)

	otherSecret, _, err := NewTokenManager("another-secret-that-is-long-enough-xx", time.Hour).Issue(7)
	require.NoError(t, err)

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    "someone-else",
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	wrongIssuerToken, err := wrongIssuer.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "7",
		Issuer:   Issuer,
		Audience: jwt.ClaimStrings{Audience},
	})
	noExpiryToken, err := noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noneToken, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"wrong issuer", wrongIssuerToken},
		{"missing expiry", noExpiryToken},
		{"alg none", noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", "anything"))
}

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisRevocationStore(rdb)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, mr.TTL("blacklist:abc"), time.Duration(0))

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	// Already expired tokens are not stored.
	require.NoError(t, store.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("blacklist:old"))
}

func TestRedisRevocationStore_NilClient(t *testing.T) {
	store := NewRedisRevocationStore(nil)
	require.NoError(t, store.Revoke(context.Background(), "abc", time.Now().Add(time.Hour)))
	revoked, err := store.IsRevoked(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}
