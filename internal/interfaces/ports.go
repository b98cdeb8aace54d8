package interfaces

import (
	"context"
	"time"

	"gemini_bot/internal/entities"
)

type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

type Messenger interface {
	SendMessage(chatID int64, content string) error
	Reply(chatID int64, replyTo int, content string) error
	SendTyping(chatID int64) error
}

// LedgerStore persists user quota records. Every mutating method must be a single
// atomic statement so concurrent callers for the same user stay linearizable.
type LedgerStore interface {
	// CreateUser inserts the user if absent and reports whether a row was created.
	CreateUser(ctx context.Context, userID int64, dailyLimit int, today time.Time) (bool, error)
	// ResetIfStale refills requests_left when last_reset_date differs from today.
	ResetIfStale(ctx context.Context, userID int64, today time.Time) (bool, error)
	// Consume decrements requests_left when it is positive.
	Consume(ctx context.Context, userID int64) (bool, error)
	// Restore increments requests_left without exceeding daily_limit.
	Restore(ctx context.Context, userID int64) (bool, error)
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// UsageStore is the append-only prompt/response log.
type UsageStore interface {
	Append(ctx context.Context, entry entities.UsageEntry) error
	Count(ctx context.Context) (int, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	ListRecent(ctx context.Context, userID int64, limit int) ([]entities.UsageEntry, error)
}

// FloodGuard throttles bursts of messages from one chat.
type FloodGuard interface {
	Allow(ctx context.Context, chatID int64) (bool, error)
	WaitTime(ctx context.Context, chatID int64) time.Duration
}
