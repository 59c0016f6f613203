// Package auth issues and verifies session tokens and hashes credentials.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is written to and required in the iss claim.
	Issuer = "srefhub-api"
	// Audience is written to and required in the aud claim.
	Audience = "srefhub-client"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the verified content of a session token.
type Claims struct {
	UserID    uint
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager returns a TokenManager. A non-positive ttl falls back to seven days.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for userID and returns it with its claims.
func (m *TokenManager) Issue(userID uint) (string, *Claims, error) {
	if len(m.secret) == 0 {
		return "", nil, fmt.Errorf("JWT secret not configured")
	}
	if userID == 0 {
		return "", nil, fmt.Errorf("cannot issue token for empty user")
	}

	now := m.now().UTC().Truncate(time.Second)
	claims := &Claims{
		UserID:    userID,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        claims.ID,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify parses tokenString and checks signature, expiry, issuer and audience.
// Every failure is reported as ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" || len(m.secret) == 0 {
		return nil, ErrInvalidToken
	}

	var registered jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &registered, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(registered.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: uint(userID), ID: registered.ID}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
