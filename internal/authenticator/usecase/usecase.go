package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/qrscan"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
)

type AccountsRegisteredEvent struct {
	EventID      string
	Source       string
	Accounts     []string
	Skipped      int
	RegisteredAt time.Time
}

type repoMessaging interface {
	PublishAccountsRegistered(ctx context.Context, msg AccountsRegisteredEvent) error
}

type repoRegistry interface {
	Get(name string) (string, bool)
	Set(name, secret string)
	Names() []string
	Save(ctx context.Context) error
}

type Usecase struct {
	registry      repoRegistry
	repoMessaging repoMessaging
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	scanner       qrscan.QRScanner
	totp          otp.OTP
	clock         clock.Clocker
	uuid          uid.StringID
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	registeredCounter metric.Int64Counter
	codesCounter      metric.Int64Counter
}

type Dependency struct {
	Registry      repoRegistry
	RepoMessaging repoMessaging
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Scanner       qrscan.QRScanner
	Totp          otp.OTP
	Clock         clock.Clocker
	UUID          uid.StringID
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("authenticator.usecase")

	return &Usecase{
		registry:      dep.Registry,
		repoMessaging: dep.RepoMessaging,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		scanner:       dep.Scanner,
		totp:          dep.Totp,
		clock:         dep.Clock,
		uuid:          dep.UUID,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,

		registeredCounter: newCounter(meter, "authenticator.accounts.registered", "Accounts written to the registry"),
		codesCounter:      newCounter(meter, "authenticator.codes.generated", "TOTP codes generated"),
	}
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil || c == nil {
		slog.Warn("failed to create counter, using noop", "name", name, "error", err)
		return noop.Int64Counter{}
	}
	return c
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.usecase").Start(ctx, name)
}
