package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore records logged-out token IDs until they would have expired.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevocationStore keeps revoked token IDs under blacklist:<jti>.
type RedisRevocationStore struct {
	rdb *redis.Client
}

// NewRedisRevocationStore returns a store backed by rdb. A nil client yields a
// store that never reports revocations.
func NewRedisRevocationStore(rdb *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{rdb: rdb}
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Revoke marks jti revoked until the given time.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, blacklistKey(jti), "revoked", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
