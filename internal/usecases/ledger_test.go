package usecases

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_EnsureUserOnce(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	isNew, err := env.ledger.EnsureUser(ctx, 100, 0)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = env.ledger.EnsureUser(ctx, 100, 5)
	require.NoError(t, err)
	assert.False(t, isNew)

	user, err := env.ledger.User(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 150, user.DailyLimit)
	assert.Equal(t, 150, user.RequestsLeft)
	assert.Equal(t, "2026-10-15", user.LastResetDate)

	total, err := env.ledger.TotalUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestLedger_ExhaustThenRestore(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 200, 150)
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		require.NoError(t, env.ledger.ResetIfStale(ctx, 200))
		granted, err := env.ledger.TryConsume(ctx, 200)
		require.NoError(t, err)
		require.True(t, granted, "consume %d", i+1)
	}

	granted, err := env.ledger.TryConsume(ctx, 200)
	require.NoError(t, err)
	assert.False(t, granted)

	remaining, err := env.ledger.Remaining(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	require.NoError(t, env.ledger.Restore(ctx, 200))
	remaining, err = env.ledger.Remaining(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestLedger_DeniedConsumeDoesNotMutate(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 300, 0)
	require.NoError(t, err)
	granted, err := env.ledger.TryConsume(ctx, 300)
	require.NoError(t, err)
	require.True(t, granted)

	for i := 0; i < 5; i++ {
		granted, err := env.ledger.TryConsume(ctx, 300)
		require.NoError(t, err)
		assert.False(t, granted)
	}

	user, err := env.ledger.User(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, 0, user.RequestsLeft)
}

func TestLedger_ConcurrentConsumeLastUnit(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 400, 1)
	require.NoError(t, err)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := env.ledger.TryConsume(ctx, 400)
			assert.NoError(t, err)
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
	remaining, err := env.ledger.Remaining(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestLedger_DifferentUsersAreIndependent(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for id := int64(1); id <= 5; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := env.ledger.EnsureUser(ctx, id, 0)
			assert.NoError(t, err)
			for i := 0; i < 5; i++ {
				_, err := env.ledger.TryConsume(ctx, id)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for id := int64(1); id <= 5; id++ {
		remaining, err := env.ledger.Remaining(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, remaining, "user %d", id)
	}
}

func TestLedger_RolloverAtMidnight(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 500, 0)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := env.ledger.TryConsume(ctx, 500)
		require.NoError(t, err)
	}

	// Same day: nothing changes.
	env.clock.Advance(11 * time.Hour)
	require.NoError(t, env.ledger.ResetIfStale(ctx, 500))
	remaining, err := env.ledger.Remaining(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// 2026-10-16 00:00:01 UTC
	env.clock.Advance(time.Hour + time.Second)
	require.NoError(t, env.ledger.ResetIfStale(ctx, 500))

	user, err := env.ledger.User(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 3, user.RequestsLeft)
	assert.Equal(t, "2026-10-16", user.LastResetDate)

	_, err = env.ledger.TryConsume(ctx, 500)
	require.NoError(t, err)
	require.NoError(t, env.ledger.ResetIfStale(ctx, 500))
	remaining, err = env.ledger.Remaining(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestLedger_RolloverUsesConfiguredZone(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	// 22:30 UTC on the 15th is already the 16th in UTC+3.
	zone := time.FixedZone("UTC+3", 3*60*60)
	env.clock.Advance(10*time.Hour + 30*time.Minute)
	ledger := NewLedger(env.ledger.store, 2, WithClock(env.clock.Now), WithLocation(zone))
	assert.Equal(t, zone, ledger.Today().Location())
	assert.Equal(t, "2026-10-16", ledger.Today().Format(time.DateOnly))

	_, err := ledger.EnsureUser(ctx, 600, 0)
	require.NoError(t, err)

	user, err := ledger.User(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", user.LastResetDate)
}

func TestLedger_RestoreCappedAtLimit(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 700, 0)
	require.NoError(t, err)

	require.NoError(t, env.ledger.Restore(ctx, 700))
	remaining, err := env.ledger.Remaining(ctx, 700)
	require.NoError(t, err)
	assert.Equal(t, 150, remaining)
}

func TestLedger_UnknownUser(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	require.NoError(t, env.ledger.ResetIfStale(ctx, 999))

	granted, err := env.ledger.TryConsume(ctx, 999)
	require.NoError(t, err)
	assert.False(t, granted)

	remaining, err := env.ledger.Remaining(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestLedger_StorageFailureFailsClosed(t *testing.T) {
	env := newTestEnv(t, 150)
	ctx := context.Background()

	_, err := env.ledger.EnsureUser(ctx, 800, 0)
	require.NoError(t, err)
	require.NoError(t, env.db.Close())

	granted, err := env.ledger.TryConsume(ctx, 800)
	assert.False(t, granted)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))

	err = env.ledger.Restore(ctx, 800)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))

	_, err = env.ledger.EnsureUser(ctx, 801, 0)
	assert.True(t, errors.Is(err, ErrStorageUnavailable))
}
