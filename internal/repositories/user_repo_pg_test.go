package repositories

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/appforge/backend/internal/db"
	"github.com/appforge/backend/internal/wallet"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestPool connects to TEST_POSTGRES_DSN and applies migrations. Tests
// using it are skipped when the variable is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func newPgUser(t *testing.T, repo *UserRepo) string {
	t.Helper()
	_, addr := wallet.NewTestKey()
	_, err := repo.Create(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = repo.pool.Exec(context.Background(), `DELETE FROM users WHERE address = $1`, addr)
	})
	return addr
}

func TestUserRepo_ConsumeChallengeOnce(t *testing.T) {
	repo := NewUserRepo(newTestPool(t))
	ctx := context.Background()
	addr := newPgUser(t, repo)

	now := time.Now().UTC().Truncate(time.Second)
	reset := now.Add(time.Hour)
	challenge := uuid.New()
	require.NoError(t, repo.SetChallenge(ctx, addr, challenge, now))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ConsumeChallenge(ctx, ConsumeChallengeParams{
				Address: addr, Challenge: challenge, Now: now, NextReset: reset, Limit: 10,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	usage, err := repo.GetAIUsage(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.UsageCount)
	require.NotNil(t, usage.ResetDate)
	assert.True(t, usage.ResetDate.Equal(reset))
	assert.Nil(t, usage.ChallengeUUID)
	assert.Nil(t, usage.ChallengeCreatedAt)
}

func TestUserRepo_ConsumeChallengeQuotaAndRollover(t *testing.T) {
	repo := NewUserRepo(newTestPool(t))
	ctx := context.Background()
	addr := newPgUser(t, repo)

	now := time.Now().UTC().Truncate(time.Second)
	windowEnd := now.Add(time.Hour)
	_, err := repo.pool.Exec(ctx,
		`UPDATE users SET ai_usage_count = 10, ai_usage_reset_date = $2 WHERE address = $1`, addr, windowEnd)
	require.NoError(t, err)

	challenge := uuid.New()
	require.NoError(t, repo.SetChallenge(ctx, addr, challenge, now))

	_, err = repo.ConsumeChallenge(ctx, ConsumeChallengeParams{
		Address: addr, Challenge: challenge, Now: now, NextReset: windowEnd, Limit: 10,
	})
	assert.ErrorIs(t, err, ErrConflict)

	usage, err := repo.GetAIUsage(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 10, usage.UsageCount)
	assert.True(t, usage.HasChallenge(challenge), "a full window leaves the challenge in place")

	// once the window has elapsed the counter restarts
	later := windowEnd.Add(time.Minute)
	nextReset := later.Add(24 * time.Hour)
	got, err := repo.ConsumeChallenge(ctx, ConsumeChallengeParams{
		Address: addr, Challenge: challenge, Now: later, NextReset: nextReset, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsageCount)
	require.NotNil(t, got.ResetDate)
	assert.True(t, got.ResetDate.Equal(nextReset))
}

func TestUserRepo_BurnAndRefund(t *testing.T) {
	repo := NewUserRepo(newTestPool(t))
	ctx := context.Background()
	addr := newPgUser(t, repo)

	now := time.Now().UTC().Truncate(time.Second)
	reset := now.Add(time.Hour)

	challenge := uuid.New()
	require.NoError(t, repo.SetChallenge(ctx, addr, challenge, now))

	burned, err := repo.BurnChallenge(ctx, addr, uuid.New())
	require.NoError(t, err)
	assert.False(t, burned)

	burned, err = repo.BurnChallenge(ctx, addr, challenge)
	require.NoError(t, err)
	assert.True(t, burned)

	_, err = repo.ConsumeChallenge(ctx, ConsumeChallengeParams{
		Address: addr, Challenge: challenge, Now: now, NextReset: reset, Limit: 10,
	})
	assert.ErrorIs(t, err, ErrConflict, "a burned challenge cannot be consumed")

	next := uuid.New()
	require.NoError(t, repo.SetChallenge(ctx, addr, next, now))
	_, err = repo.ConsumeChallenge(ctx, ConsumeChallengeParams{
		Address: addr, Challenge: next, Now: now, NextReset: reset, Limit: 10,
	})
	require.NoError(t, err)

	// a refund for another window is ignored
	require.NoError(t, repo.RefundUsage(ctx, addr, reset.Add(24*time.Hour)))
	usage, err := repo.GetAIUsage(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.UsageCount)

	require.NoError(t, repo.RefundUsage(ctx, addr, reset))
	require.NoError(t, repo.RefundUsage(ctx, addr, reset))
	usage, err = repo.GetAIUsage(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.UsageCount, "refunds never go negative")
}

func TestUserRepo_SetChallengeUnknownUser(t *testing.T) {
	repo := NewUserRepo(newTestPool(t))
	_, addr := wallet.NewTestKey()

	err := repo.SetChallenge(context.Background(), addr, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}
