package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"srefhub/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// inflight collapses concurrent misses for the same key into one fetch.
var inflight singleflight.Group

func get[T any](ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside returns the cached value for key, or calls fetch and caches its
// result for ttl. Without Redis, or when Redis errors, it degrades to
// fetch. Fetch errors are returned as-is and never cached.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if client == nil {
		return fetch()
	}

	v, found, err := get[T](ctx, key)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return v, nil
	}

	res, err, _ := inflight.Do(key, func() (any, error) {
		fresh, err := fetch()
		if err != nil {
			return fresh, err
		}
		if err := set(ctx, key, fresh, ttl); err != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return fresh, nil
	})
	out, _ := res.(T)
	return out, err
}
