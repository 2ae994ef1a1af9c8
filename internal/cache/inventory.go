package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	TrendingKeyPrefix = "feed:trending:%d:%d"
	PopularKeyPrefix  = "feed:popular:%d:%d"
	StatsKey          = "community:stats"
)

const (
	UserTTL     = 5 * time.Minute
	TrendingTTL = 2 * time.Minute
	PopularTTL  = 2 * time.Minute
	StatsTTL    = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func TrendingKey(limit, offset int) string {
	return fmt.Sprintf(TrendingKeyPrefix, limit, offset)
}

func PopularKey(limit, offset int) string {
	return fmt.Sprintf(PopularKeyPrefix, limit, offset)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateRankings drops cached ranked feed pages after a write that
// affects scores (new track, like, comment, play burst is allowed to lag).
func InvalidateRankings(ctx context.Context) {
	if client == nil {
		return
	}
	for _, pattern := range []string{"feed:trending:*", "feed:popular:*"} {
		iter := client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
}
