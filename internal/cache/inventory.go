package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLs per cached resource.
const (
	UserTTL        = 5 * time.Minute
	LeaderboardTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// ContributorsKey is the cached contributor ranking for one sort and size.
// Rankings are left to expire rather than invalidated on every like.
func ContributorsKey(sort string, limit int) string {
	return fmt.Sprintf("leaderboard:contributors:%s:%d", sort, limit)
}

// Invalidate drops keys. Errors are ignored; entries expire on their own.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateUser drops cached profiles whose counters changed.
func InvalidateUser(ctx context.Context, userIDs ...uint) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = UserKey(id)
	}
	Invalidate(ctx, keys...)
}
