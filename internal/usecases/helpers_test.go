package usecases

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gemini_bot/internal/infrastructure"
	"gemini_bot/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAI struct {
	mu     sync.Mutex
	calls  int
	answer string
	err    error
}

func (f *fakeAI) GenerateResponse(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.answer, f.err
}

type testEnv struct {
	db     *infrastructure.SQLiteClient
	clock  *fakeClock
	ledger *Ledger
	usage  *UsageLog
}

func newTestEnv(t *testing.T, defaultLimit int) *testEnv {
	t.Helper()
	db, err := infrastructure.NewSQLiteClient(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{now: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	ledger := NewLedger(repository.NewSQLiteUserRepository(db.DB), defaultLimit,
		WithClock(clock.Now), WithLocation(time.UTC))
	usage := NewUsageLog(repository.NewSQLiteUsageRepository(db.DB))

	return &testEnv{db: db, clock: clock, ledger: ledger, usage: usage}
}
