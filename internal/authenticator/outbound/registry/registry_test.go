package registry

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu      sync.Mutex
	data    map[string]string
	stores  int
	failN   int
	loadErr error
	changed []map[string]string
	// block, when set, is received from inside Store before it returns.
	block chan struct{}
	// entered is signalled when Store starts.
	entered chan struct{}
}

func (m *memBackend) Name() string { return "mem" }

func (m *memBackend) Load(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return maps.Clone(m.data), nil
}

func (m *memBackend) Store(_ context.Context, all, changed map[string]string) error {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	if m.failN > 0 {
		m.failN--
		return errors.New("transient")
	}
	m.data = maps.Clone(all)
	m.changed = append(m.changed, maps.Clone(changed))
	return nil
}

func fastOptions() Options {
	return Options{RetryAttempts: 2, RetryBase: time.Millisecond}
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), nil, Options{})
	require.ErrorIs(t, err, ErrNilBackend)

	_, err = New(context.Background(), &memBackend{loadErr: errors.New("down")}, Options{})
	require.EqualError(t, err, "down")

	r, err := New(context.Background(), &memBackend{data: map[string]string{"a": "GEZDGNBV"}}, Options{})
	require.NoError(t, err)
	secret, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "GEZDGNBV", secret)

	r, err = New(context.Background(), &memBackend{}, Options{})
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Names())
}

func TestRegistry_SetSaveReload(t *testing.T) {
	ctx := context.Background()
	backend := &memBackend{}

	r, err := New(ctx, backend, fastOptions())
	require.NoError(t, err)

	r.Set("bob", "BBBB")
	r.Set("alice", "AAAA")
	r.Set("alice", "CCCC")

	assert.Equal(t, []string{"alice", "bob"}, r.Names())
	assert.Equal(t, 2, r.Pending())

	reloaded, err := New(ctx, backend, fastOptions())
	require.NoError(t, err)
	assert.Zero(t, reloaded.Len(), "unsaved Set must not be persisted")

	require.NoError(t, r.Save(ctx))
	assert.Zero(t, r.Pending())
	assert.Equal(t, map[string]string{"alice": "CCCC", "bob": "BBBB"}, backend.changed[0])

	reloaded, err = New(ctx, backend, fastOptions())
	require.NoError(t, err)
	secret, ok := reloaded.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "CCCC", secret)
	assert.Equal(t, []string{"alice", "bob"}, reloaded.Names())

	r.Set("carol", "DDDD")
	require.NoError(t, r.Save(ctx))
	assert.Equal(t, map[string]string{"carol": "DDDD"}, backend.changed[1])
}

func TestRegistry_SaveNothingPending(t *testing.T) {
	backend := &memBackend{}
	r, err := New(context.Background(), backend, fastOptions())
	require.NoError(t, err)

	require.NoError(t, r.Save(context.Background()))
	assert.Zero(t, backend.stores)
}

func TestRegistry_SaveRetries(t *testing.T) {
	backend := &memBackend{failN: 2}
	r, err := New(context.Background(), backend, fastOptions())
	require.NoError(t, err)

	r.Set("a", "AAAA")
	require.NoError(t, r.Save(context.Background()))
	assert.Equal(t, 3, backend.stores)
	assert.Zero(t, r.Pending())
}

func TestRegistry_SaveGivesUp(t *testing.T) {
	backend := &memBackend{failN: 10}
	r, err := New(context.Background(), backend, fastOptions())
	require.NoError(t, err)

	r.Set("a", "AAAA")
	require.EqualError(t, r.Save(context.Background()), "transient")
	assert.Equal(t, 3, backend.stores)
	assert.Equal(t, 1, r.Pending(), "failed flush keeps the key pending")

	backend.failN = 0
	require.NoError(t, r.Save(context.Background()))
	assert.Zero(t, r.Pending())
}

func TestRegistry_SetDuringSaveStaysDirty(t *testing.T) {
	backend := &memBackend{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	r, err := New(context.Background(), backend, fastOptions())
	require.NoError(t, err)

	r.Set("a", "ONE")

	done := make(chan error, 1)
	go func() { done <- r.Save(context.Background()) }()

	<-backend.entered
	r.Set("a", "TWO")
	close(backend.block)
	require.NoError(t, <-done)

	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, "ONE", backend.data["a"])

	backend.entered = nil
	require.NoError(t, r.Save(context.Background()))
	assert.Zero(t, r.Pending())
	assert.Equal(t, "TWO", backend.data["a"])
}

func TestRegistry_Concurrent(t *testing.T) {
	r, err := New(context.Background(), &memBackend{}, fastOptions())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			name := string(rune('a' + i))
			r.Set(name, "SECRET")
			_, _ = r.Get(name)
			_ = r.Names()
			assert.NoError(t, r.Save(context.Background()))
		})
	}
	wg.Wait()

	assert.Equal(t, 20, r.Len())
	assert.Zero(t, r.Pending())
}
