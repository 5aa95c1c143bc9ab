package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "test:")

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	require.NoError(t, tracker.Exec(ctx, "k1", fn))
	require.ErrorIs(t, tracker.Exec(ctx, "k1", fn), ErrAlreadyCompleted)
	assert.Equal(t, 1, calls)

	val, err := client.Get(ctx, "test:k1").Result()
	require.NoError(t, err)
	assert.Equal(t, StateCompleted.String(), val)

	ttl, err := client.TTL(ctx, "test:k1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)
}

func TestStateTracker_ExecFailureReleases(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "")

	boom := errors.New("boom")
	err := tracker.Exec(ctx, "k", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	n, err := client.Exists(ctx, "idempotency:k").Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, tracker.Exec(ctx, "k", func(context.Context) error { return nil }))
}

func TestStateTracker_InProgress(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	tracker := New(client, "")

	state, err := tracker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)

	state, err = tracker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, state)

	err = tracker.Exec(ctx, "k", func(context.Context) error { return nil }, WithLockDuration(time.Second), WithStateTTL(0))
	require.ErrorIs(t, err, ErrAlreadyInProgress)
}

func TestStateTracker_InvalidState(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "idempotency:k", "garbage", time.Minute).Err())

	state, err := New(client, "").Acquire(ctx, "k", time.Minute)
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateError, state)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var n Noop

	calls := 0
	require.NoError(t, n.Exec(ctx, "k", func(context.Context) error { calls++; return nil }))
	require.NoError(t, n.Exec(ctx, "k", func(context.Context) error { calls++; return nil }))
	assert.Equal(t, 2, calls)

	state, err := n.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)
	require.NoError(t, n.MarkCompleted(ctx, "k", time.Second))
	require.NoError(t, n.Release(ctx, "k"))
}
