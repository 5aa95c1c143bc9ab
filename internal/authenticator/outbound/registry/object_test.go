package registry

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
)

func TestObjectBackend(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	backend := NewObjectBackend(store, "bucket", "")
	assert.Equal(t, DriverObject, backend.Name())

	r, err := New(ctx, backend, fastOptions())
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	r.Set("alice", "AAAA")
	require.NoError(t, r.Save(ctx))

	rc, info, err := store.GetObject(ctx, "bucket", defaultObjectKey)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice":"AAAA"}`, string(data))
	assert.Equal(t, "application/json", info.ContentType)

	reloaded, err := New(ctx, NewObjectBackend(store, "bucket", ""), fastOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, reloaded.Names())
}

func TestObjectBackend_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	_, err := store.PutObject(ctx, "bucket", "k", strings.NewReader("{"), storage.PutOptions{})
	require.NoError(t, err)

	_, err = NewObjectBackend(store, "bucket", "k").Load(ctx)
	require.Error(t, err)
}
