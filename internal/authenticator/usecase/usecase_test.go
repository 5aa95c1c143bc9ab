package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // RFC 6238 reference
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sync"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/qrscan"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
)

// 1_700_000_000 is 20 seconds into its 30 second step.
var testNow = time.Unix(1_700_000_000, 0).UTC()

type fakeRegistry struct {
	mu      sync.Mutex
	data    map[string]string
	saved   map[string]string
	saves   int
	saveErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{data: map[string]string{}, saved: map[string]string{}}
}

func (f *fakeRegistry) Get(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[name]
	return s, ok
}

func (f *fakeRegistry) Set(name, secret string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[name] = secret
}

func (f *fakeRegistry) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := slices.Collect(maps.Keys(f.data))
	slices.Sort(names)
	return names
}

func (f *fakeRegistry) Save(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = maps.Clone(f.data)
	return nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []AccountsRegisteredEvent
	err    error
}

func (f *fakeMessaging) PublishAccountsRegistered(_ context.Context, msg AccountsRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type fakeScanner struct {
	text  string
	found bool
	err   error
}

func (f fakeScanner) Scan([]byte) (string, bool, error) {
	return f.text, f.found, f.err
}

type fakeIdempotency struct {
	idempotency.Noop
	execErr error
	keys    []string
}

func (f *fakeIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.keys = append(f.keys, key)
	if f.execErr != nil {
		return f.execErr
	}
	return fn(ctx)
}

type fixture struct {
	uc        *Usecase
	registry  *fakeRegistry
	messaging *fakeMessaging
	goroutine *goroutine.Manager
}

type fixtureOption func(*Dependency)

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  authenticator:
    export_size: 320
    idempotency_ttl_seconds: 60
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	f := &fixture{
		registry:  newFakeRegistry(),
		messaging: &fakeMessaging{},
		goroutine: goroutine.NewManager(10),
	}

	dep := Dependency{
		Registry:      f.registry,
		RepoMessaging: f.messaging,
		Idempotency:   idempotency.Noop{},
		Validator:     v,
		Config:        cfg,
		Scanner:       qrscan.New(),
		Totp:          otp.NewTOTP("otpkeeper", 30, libotp.DigitsSix),
		Clock:         clock.Fixed(testNow),
		UUID:          uid.Static("evt-1"),
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.goroutine,
	}
	for _, opt := range opts {
		opt(&dep)
	}
	f.uc = New(dep)

	return f
}

// events drains the background publisher and returns what it sent.
func (f *fixture) events(t *testing.T) []AccountsRegisteredEvent {
	t.Helper()
	require.NoError(t, f.goroutine.Wait())

	f.messaging.mu.Lock()
	defer f.messaging.mu.Unlock()
	return slices.Clone(f.messaging.events)
}

func requireGoError(t *testing.T, err error, code goerror.Code, msg string) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
	if msg != "" {
		assert.Equal(t, msg, gerr.Msg())
	}
	return gerr
}

type migrationRecord struct {
	secret []byte
	name   string
	issuer string
	typ    uint64
}

func encodeMigration(records ...migrationRecord) []byte {
	var payload []byte
	for _, r := range records {
		var p []byte
		p = protowire.AppendTag(p, 1, protowire.BytesType)
		p = protowire.AppendBytes(p, r.secret)
		p = protowire.AppendTag(p, 2, protowire.BytesType)
		p = protowire.AppendString(p, r.name)
		if r.issuer != "" {
			p = protowire.AppendTag(p, 3, protowire.BytesType)
			p = protowire.AppendString(p, r.issuer)
		}
		p = protowire.AppendTag(p, 6, protowire.VarintType)
		p = protowire.AppendVarint(p, r.typ)

		payload = protowire.AppendTag(payload, 1, protowire.BytesType)
		payload = protowire.AppendBytes(payload, p)
	}
	payload = protowire.AppendTag(payload, 2, protowire.VarintType)
	payload = protowire.AppendVarint(payload, 1)
	return payload
}

func migrationURI(records ...migrationRecord) string {
	data := base64.StdEncoding.EncodeToString(encodeMigration(records...))
	return "otpauth-migration://offline?data=" + url.QueryEscape(data)
}

// referenceTOTP computes RFC 6238 with SHA1, 30 seconds, 6 digits.
func referenceTOTP(secret []byte, at time.Time) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(at.Unix()/30))

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	off := sum[len(sum)-1] & 0x0f
	bin := (uint32(sum[off])&0x7f)<<24 |
		uint32(sum[off+1])<<16 |
		uint32(sum[off+2])<<8 |
		uint32(sum[off+3])

	return fmt.Sprintf("%06d", bin%1_000_000)
}

func TestNew_CountersAreUsable(t *testing.T) {
	f := newFixture(t)
	assert.NotNil(t, f.uc.registeredCounter)
	assert.NotNil(t, f.uc.codesCounter)
}

func TestReferenceTOTP_RFC6238(t *testing.T) {
	// RFC 6238 appendix B, SHA1, truncated to 6 digits.
	assert.Equal(t, "287082", referenceTOTP([]byte("12345678901234567890"), time.Unix(59, 0)))
	assert.Equal(t, "081804", referenceTOTP([]byte("12345678901234567890"), time.Unix(1111111109, 0)))
}

var errBoom = errors.New("boom")
