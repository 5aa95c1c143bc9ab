package registry

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresBackend(t *testing.T) {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("otpkeeper"),
		tcpostgres.WithUsername("otpkeeper"),
		tcpostgres.WithPassword("otpkeeper"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = NewPostgresBackend(ctx, pool, "bad-name")
	require.ErrorIs(t, err, ErrInvalidTableName)

	backend, err := NewPostgresBackend(ctx, pool, "")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, backend.Name())

	r, err := New(ctx, backend, fastOptions())
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	r.Set("alice", "AAAA")
	r.Set("bob", "BBBB")
	require.NoError(t, r.Save(ctx))

	r.Set("alice", "CCCC")
	require.NoError(t, r.Save(ctx))

	var count int
	require.NoError(t, pool.QueryRow(ctx, "select count(*) from authenticator_secrets").Scan(&count))
	assert.Equal(t, 2, count)

	again, err := NewPostgresBackend(ctx, pool, "")
	require.NoError(t, err, "table creation is idempotent")

	reloaded, err := New(ctx, again, fastOptions())
	require.NoError(t, err)
	secret, ok := reloaded.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "CCCC", secret)
	assert.Equal(t, []string{"alice", "bob"}, reloaded.Names())
}
