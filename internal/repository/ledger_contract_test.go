package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini_bot/internal/entities"
	"gemini_bot/internal/interfaces"
)

// runLedgerStoreContract exercises the behaviour every LedgerStore must share.
// newStore must return an empty store.
func runLedgerStoreContract(t *testing.T, newStore func(t *testing.T) interfaces.LedgerStore) {
	today := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	t.Run("CreateUserIsIdempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreateUser(ctx, 1, 150, today)
		require.NoError(t, err)
		assert.True(t, created)

		ok, err := store.Consume(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)

		created, err = store.CreateUser(ctx, 1, 10, today)
		require.NoError(t, err)
		assert.False(t, created)

		user, err := store.GetUser(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, 150, user.DailyLimit)
		assert.Equal(t, 149, user.RequestsLeft)
		assert.Equal(t, "2026-10-15", user.LastResetDate)

		count, err := store.CountUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("GetUnknownUser", func(t *testing.T) {
		store := newStore(t)
		user, err := store.GetUser(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("ConsumeStopsAtZero", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.CreateUser(ctx, 2, 2, today)
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			ok, err := store.Consume(ctx, 2)
			require.NoError(t, err)
			assert.True(t, ok, "consume %d", i+1)
		}
		for i := 0; i < 3; i++ {
			ok, err := store.Consume(ctx, 2)
			require.NoError(t, err)
			assert.False(t, ok)
		}

		user, err := store.GetUser(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, user.RequestsLeft)
	})

	t.Run("ConsumeUnknownUser", func(t *testing.T) {
		store := newStore(t)
		ok, err := store.Consume(context.Background(), 404)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConcurrentConsumeGrantsExactlyOnce", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.CreateUser(ctx, 3, 1, today)
		require.NoError(t, err)

		var granted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Consume(ctx, 3)
				assert.NoError(t, err)
				if ok {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), granted.Load())
		user, err := store.GetUser(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, user.RequestsLeft)
	})

	t.Run("ConcurrentConsumeLosesNoDecrements", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.CreateUser(ctx, 4, 100, today)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Consume(ctx, 4)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		user, err := store.GetUser(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 60, user.RequestsLeft)
	})

	t.Run("ResetIfStale", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.CreateUser(ctx, 5, 3, yesterday)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			_, err := store.Consume(ctx, 5)
			require.NoError(t, err)
		}

		reset, err := store.ResetIfStale(ctx, 5, today)
		require.NoError(t, err)
		assert.True(t, reset)

		user, err := store.GetUser(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 3, user.RequestsLeft)
		assert.Equal(t, "2026-10-15", user.LastResetDate)

		_, err = store.Consume(ctx, 5)
		require.NoError(t, err)

		reset, err = store.ResetIfStale(ctx, 5, today.Add(10*time.Hour))
		require.NoError(t, err)
		assert.False(t, reset)

		user, err = store.GetUser(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 2, user.RequestsLeft)
	})

	t.Run("ResetUnknownUser", func(t *testing.T) {
		store := newStore(t)
		reset, err := store.ResetIfStale(context.Background(), 404, today)
		require.NoError(t, err)
		assert.False(t, reset)
	})

	t.Run("RestoreIsCappedAtDailyLimit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		_, err := store.CreateUser(ctx, 6, 2, today)
		require.NoError(t, err)

		_, err = store.Consume(ctx, 6)
		require.NoError(t, err)

		restored, err := store.Restore(ctx, 6)
		require.NoError(t, err)
		assert.True(t, restored)

		restored, err = store.Restore(ctx, 6)
		require.NoError(t, err)
		assert.False(t, restored)

		user, err := store.GetUser(ctx, 6)
		require.NoError(t, err)
		assert.Equal(t, 2, user.RequestsLeft)
	})
}

func runUsageStoreContract(t *testing.T, newStore func(t *testing.T) interfaces.UsageStore) {
	t.Run("AppendAndList", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i, prompt := range []string{"first prompt", "second prompt", "third prompt"} {
			err := store.Append(ctx, entities.UsageEntry{
				RequestID: "00000000-0000-0000-0000-00000000000" + string(rune('1'+i)),
				UserID:    7,
				Prompt:    prompt,
				Response:  "answer",
			})
			require.NoError(t, err)
		}
		require.NoError(t, store.Append(ctx, entities.UsageEntry{
			RequestID: "00000000-0000-0000-0000-000000000009",
			UserID:    8,
			Prompt:    "other user",
			Response:  "answer",
		}))

		total, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		mine, err := store.CountByUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, mine)

		recent, err := store.ListRecent(ctx, 7, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "third prompt", recent[0].Prompt)
		assert.Equal(t, "second prompt", recent[1].Prompt)
		assert.False(t, recent[0].CreatedAt.IsZero())
	})

	t.Run("AppendRequiresUser", func(t *testing.T) {
		store := newStore(t)
		err := store.Append(context.Background(), entities.UsageEntry{Prompt: "p", Response: "r"})
		assert.Error(t, err)
	})

	t.Run("ListRecentEmpty", func(t *testing.T) {
		store := newStore(t)
		recent, err := store.ListRecent(context.Background(), 404, 0)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}
