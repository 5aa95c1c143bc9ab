package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "secrets.json")
	backend := NewFileBackend(path)
	assert.Equal(t, DriverFile, backend.Name())

	got, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	r, err := New(ctx, backend, fastOptions())
	require.NoError(t, err)
	r.Set("alice@example.com", "JBSWY3DPEHPK3PXP")
	r.Set("Example:bob", "GEZDGNBVGY3TQOJQ")
	require.NoError(t, r.Save(ctx))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice@example.com":"JBSWY3DPEHPK3PXP","Example:bob":"GEZDGNBVGY3TQOJQ"}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")

	reloaded, err := New(ctx, NewFileBackend(path), fastOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Example:bob", "alice@example.com"}, reloaded.Names())
}

func TestFileBackend_LoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":"AAAA"}`), 0o600))

	got, err := NewFileBackend(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "AAAA"}, got)

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	got, err = NewFileBackend(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte(`["not","an","object"]`), 0o600))
	_, err = NewFileBackend(path).Load(context.Background())
	require.Error(t, err)
}

func TestFileBackend_StoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileBackend(filepath.Join(t.TempDir(), "s.json")).Store(ctx, map[string]string{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}
