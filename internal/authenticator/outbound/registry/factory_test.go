package registry

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
)

func TestNewBackendFromDriver(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackendFromDriver(ctx, "", BackendOptions{FilePath: "secrets.json"})
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	_, err = NewBackendFromDriver(ctx, DriverFile, BackendOptions{})
	require.ErrorIs(t, err, ErrResourceMissing)

	_, err = NewBackendFromDriver(ctx, DriverRedis, BackendOptions{})
	require.ErrorIs(t, err, ErrResourceMissing)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	t.Cleanup(func() { _ = client.Close() })
	b, err = NewBackendFromDriver(ctx, "REDIS", BackendOptions{Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisBackend{}, b)

	_, err = NewBackendFromDriver(ctx, DriverPostgres, BackendOptions{})
	require.ErrorIs(t, err, ErrResourceMissing)

	_, err = NewBackendFromDriver(ctx, DriverObject, BackendOptions{Storage: storage.NewMemory()})
	require.ErrorIs(t, err, ErrResourceMissing)

	b, err = NewBackendFromDriver(ctx, DriverObject, BackendOptions{Storage: storage.NewMemory(), Bucket: "b"})
	require.NoError(t, err)
	assert.IsType(t, &ObjectBackend{}, b)

	_, err = NewBackendFromDriver(ctx, "sqlite", BackendOptions{})
	require.ErrorIs(t, err, ErrUnknownDriver)
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, validIdentifier("authenticator_secrets"))
	assert.True(t, validIdentifier("t1"))
	assert.False(t, validIdentifier(""))
	assert.False(t, validIdentifier("1t"))
	assert.False(t, validIdentifier("users; drop table x"))
	assert.False(t, validIdentifier("Upper"))
}
