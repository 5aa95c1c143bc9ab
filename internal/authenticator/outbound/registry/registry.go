// Package registry keeps the account secrets in memory and flushes them to a
// persistent backend on Save.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
)

var ErrNilBackend = errors.New("registry: backend is required")

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 100 * time.Millisecond
)

// Backend persists the registry. Store receives the full snapshot and the
// subset changed since the last successful flush; a backend writes whichever
// it needs.
type Backend interface {
	Name() string
	Load(ctx context.Context) (map[string]string, error)
	Store(ctx context.Context, all, changed map[string]string) error
}

type Options struct {
	Instrument    instrument.Instrumentation
	RetryAttempts uint64
	RetryBase     time.Duration
}

// Registry maps account names to base32 secrets. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	secrets map[string]string
	// dirty holds the write version of every key changed since the last flush.
	dirty   map[string]uint64
	version uint64

	saveMu  sync.Mutex
	backend Backend
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

// New builds a registry primed with the state persisted in backend.
func New(ctx context.Context, backend Backend, opts Options) (*Registry, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	ins := opts.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}
	attempts := opts.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}
	base := opts.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}

	r := &Registry{
		dirty:   make(map[string]uint64),
		backend: backend,
		ins:     ins,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(attempts, retry.NewExponential(base))
		},
	}

	ctx, span := r.startSpan(ctx, "Load")
	defer span.End()

	secrets, err := backend.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if secrets == nil {
		secrets = make(map[string]string)
	}
	r.secrets = secrets

	slog.InfoContext(ctx, "registry loaded", "backend", backend.Name(), "accounts", len(secrets))

	return r, nil
}

func (r *Registry) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("authenticator.outbound.registry").Start(ctx, name,
		trace.WithAttributes(attribute.String("registry.backend", r.backend.Name())))
}

func (r *Registry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	secret, ok := r.secrets[name]
	return secret, ok
}

// Set stores secret under name in memory only. Call Save to persist it.
func (r *Registry) Set(name, secret string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.version++
	r.secrets[name] = secret
	r.dirty[name] = r.version
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := lo.Keys(r.secrets)
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.secrets)
}

// Save flushes every pending change to the backend. Calls are serialized. A
// key set again while a flush is running stays pending for the next Save.
func (r *Registry) Save(ctx context.Context) error {
	ctx, span := r.startSpan(ctx, "Save")
	defer span.End()

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	r.mu.RLock()
	if len(r.dirty) == 0 {
		r.mu.RUnlock()
		return nil
	}
	all := maps.Clone(r.secrets)
	versions := maps.Clone(r.dirty)
	r.mu.RUnlock()

	changed := make(map[string]string, len(versions))
	for name := range versions {
		changed[name] = all[name]
	}
	span.SetAttributes(attribute.Int("registry.changed", len(changed)))

	attempt := 0
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		if err := r.backend.Store(ctx, all, changed); err != nil {
			slog.WarnContext(ctx, "failed to store registry", "backend", r.backend.Name(), "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.mu.Lock()
	for name, v := range versions {
		if r.dirty[name] == v {
			delete(r.dirty, name)
		}
	}
	r.mu.Unlock()

	return nil
}

// Pending reports how many keys are waiting for Save.
func (r *Registry) Pending() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.dirty)
}
