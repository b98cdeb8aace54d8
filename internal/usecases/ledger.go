package usecases

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gemini_bot/internal/entities"
	"gemini_bot/internal/interfaces"
	"gemini_bot/internal/metrics"
)

// Ledger owns the per-user daily quota. The "day" is evaluated lazily in loc on
// every call, so no background job is needed for the midnight rollover.
type Ledger struct {
	store        interfaces.LedgerStore
	defaultLimit int
	loc          *time.Location
	now          func() time.Time
	log          zerolog.Logger
}

type LedgerOption func(*Ledger)

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) { l.loc = loc }
}

func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func NewLedger(store interfaces.LedgerStore, defaultLimit int, opts ...LedgerOption) *Ledger {
	if defaultLimit <= 0 {
		defaultLimit = entities.DefaultDailyLimit
	}
	l := &Ledger{
		store:        store,
		defaultLimit: defaultLimit,
		loc:          time.Local,
		now:          time.Now,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today is the current instant in the ledger's time zone. Stores keep only its
// calendar date.
func (l *Ledger) Today() time.Time {
	return l.now().In(l.loc)
}

// DefaultLimit is the limit given to users created without an explicit one.
func (l *Ledger) DefaultLimit() int {
	return l.defaultLimit
}

// EnsureUser creates the user on first contact. An existing record is never touched,
// whatever dailyLimit is passed. dailyLimit <= 0 selects the default limit.
func (l *Ledger) EnsureUser(ctx context.Context, userID int64, dailyLimit int) (bool, error) {
	if dailyLimit <= 0 {
		dailyLimit = l.defaultLimit
	}
	created, err := l.store.CreateUser(ctx, userID, dailyLimit, l.Today())
	if err != nil {
		return false, storageErr("ensure user", err)
	}
	if created {
		metrics.UsersCreatedTotal.Inc()
		l.log.Info().Int64("user_id", userID).Int("daily_limit", dailyLimit).Msg("user created")
	}
	return created, nil
}

// ResetIfStale refills the quota when the stored reset date is not today.
// Unknown users are ignored.
func (l *Ledger) ResetIfStale(ctx context.Context, userID int64) error {
	reset, err := l.store.ResetIfStale(ctx, userID, l.Today())
	if err != nil {
		return storageErr("reset quota", err)
	}
	if reset {
		metrics.QuotaResetTotal.Inc()
		l.log.Debug().Int64("user_id", userID).Msg("daily quota reset")
	}
	return nil
}

// TryConsume takes one request from today's quota. It reports false when nothing
// is left, and also when the store fails: callers must never serve an ungranted request.
func (l *Ledger) TryConsume(ctx context.Context, userID int64) (bool, error) {
	granted, err := l.store.Consume(ctx, userID)
	if err != nil {
		metrics.QuotaConsumeTotal.WithLabelValues("error").Inc()
		return false, storageErr("consume quota", err)
	}
	if !granted {
		metrics.QuotaConsumeTotal.WithLabelValues("denied").Inc()
		return false, nil
	}
	metrics.QuotaConsumeTotal.WithLabelValues("granted").Inc()
	return true, nil
}

// Restore gives back a request that was consumed but never answered. The quota
// never grows past daily_limit. A failed restore permanently costs the user one
// request and is logged as such.
func (l *Ledger) Restore(ctx context.Context, userID int64) error {
	restored, err := l.store.Restore(ctx, userID)
	if err != nil {
		metrics.QuotaRestoreTotal.WithLabelValues("error").Inc()
		l.log.Error().Err(err).Int64("user_id", userID).Msg("quota restore failed, one request lost")
		return storageErr("restore quota", err)
	}
	if !restored {
		metrics.QuotaRestoreTotal.WithLabelValues("capped").Inc()
		l.log.Warn().Int64("user_id", userID).Msg("quota restore skipped, already at daily limit")
		return nil
	}
	metrics.QuotaRestoreTotal.WithLabelValues("restored").Inc()
	return nil
}

// Remaining returns today's remaining requests, 0 for unknown users.
func (l *Ledger) Remaining(ctx context.Context, userID int64) (int, error) {
	user, err := l.User(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return user.RequestsLeft, nil
}

// User returns the stored record or nil when the user is unknown.
func (l *Ledger) User(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return user, nil
}

func (l *Ledger) TotalUsers(ctx context.Context) (int, error) {
	n, err := l.store.CountUsers(ctx)
	if err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}
