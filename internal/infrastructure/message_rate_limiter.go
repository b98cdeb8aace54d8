package infrastructure

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MessageRateLimiter implements token bucket rate limiting per chat
type MessageRateLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*chatBucket
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type chatBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMessageRateLimiter creates a rate limiter with specified rate and burst
// rate: messages per second allowed
// burst: maximum burst capacity
func NewMessageRateLimiter(perSecond float64, burst int) *MessageRateLimiter {
	return &MessageRateLimiter{
		buckets: make(map[int64]*chatBucket),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (rl *MessageRateLimiter) bucket(chatID int64, now time.Time) *chatBucket {
	b, ok := rl.buckets[chatID]
	if !ok {
		b = &chatBucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[chatID] = b
	}
	b.lastSeen = now
	return b
}

// Allow checks if the chat can send a message (consumes 1 token if allowed)
func (rl *MessageRateLimiter) Allow(_ context.Context, chatID int64) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	return rl.bucket(chatID, now).limiter.AllowN(now, 1), nil
}

// WaitTime returns how long to wait before next message is allowed
func (rl *MessageRateLimiter) WaitTime(_ context.Context, chatID int64) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[chatID]
	if !ok {
		return 0
	}
	now := rl.now()
	r := b.limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	if !r.OK() {
		return 0
	}
	return r.DelayFrom(now)
}

// RunCleanup removes idle buckets every interval until ctx is done.
func (rl *MessageRateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *MessageRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for chatID, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.idleTTL {
			delete(rl.buckets, chatID)
		}
	}
}

// GetStats returns rate limiter statistics
func (rl *MessageRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"backend":      "memory",
		"active_chats": len(rl.buckets),
		"rate":         float64(rl.rate),
		"burst":        rl.burst,
	}
}
