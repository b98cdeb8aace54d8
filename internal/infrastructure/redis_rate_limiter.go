package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const floodKeyPrefix = "flood:chat:"

// RedisRateLimiter is a sorted-set sliding window shared by every bot replica:
// at most max messages per chat within window.
type RedisRateLimiter struct {
	rdb    redis.Cmdable
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter derives the window from a token-bucket style rate/burst pair
// so both backends are configured the same way.
func NewRedisRateLimiter(rdb redis.Cmdable, perSecond float64, burst int) *RedisRateLimiter {
	window := time.Duration(float64(burst) / perSecond * float64(time.Second))
	if window < time.Second {
		window = time.Second
	}
	return &RedisRateLimiter{rdb: rdb, max: burst, window: window, now: time.Now}
}

func floodKey(chatID int64) string {
	return floodKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, chatID int64) (bool, error) {
	key := floodKey(chatID)
	now := rl.now()
	windowStart := now.Add(-rl.window).UnixMilli()

	pipe := rl.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("flood limiter (clean+count): %w", err)
	}

	count := countCmd.Val()
	if count >= int64(rl.max) {
		return false, nil
	}

	pipe = rl.rdb.Pipeline()
	member := fmt.Sprintf("%d:%d", now.UnixNano(), count)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: member})
	pipe.Expire(ctx, key, rl.window+30*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("flood limiter (add): %w", err)
	}
	return true, nil
}

// WaitTime is the time until the oldest entry leaves the window; 0 when the chat
// is under the limit or Redis cannot be reached.
func (rl *RedisRateLimiter) WaitTime(ctx context.Context, chatID int64) time.Duration {
	key := floodKey(chatID)
	count, err := rl.rdb.ZCard(ctx, key).Result()
	if err != nil || count < int64(rl.max) {
		return 0
	}
	oldest, err := rl.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil || len(oldest) == 0 {
		return 0
	}
	expires := time.UnixMilli(int64(oldest[0].Score)).Add(rl.window)
	if wait := expires.Sub(rl.now()); wait > 0 {
		return wait
	}
	return 0
}

func (rl *RedisRateLimiter) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"backend": "redis",
		"max":     rl.max,
		"window":  rl.window.String(),
	}
}
