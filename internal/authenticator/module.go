package authenticator

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/otpkeeper/internal/authenticator/inbound"
	"github.com/shandysiswandi/otpkeeper/internal/authenticator/outbound/mq"
	"github.com/shandysiswandi/otpkeeper/internal/authenticator/outbound/registry"
	"github.com/shandysiswandi/otpkeeper/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/instrument"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/messaging"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/qrscan"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/uid"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/validator"
)

const defaultMaxImageBytes = 5 << 20

// Dependency lists what the module needs. DBConn, CacheConn and Storage are
// only required by the registry driver that uses them.
type Dependency struct {
	DBConn    *pgxpool.Pool
	CacheConn *redis.Client
	Storage   storage.Storage

	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Totp        otp.OTP                    `validate:"required"`
	Scanner     qrscan.QRScanner           `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	backend, err := registry.NewBackendFromDriver(ctx, dep.Config.GetString("modules.authenticator.registry.driver"), backendOptions(dep))
	if err != nil {
		return err
	}

	reg, err := registry.New(ctx, backend, registry.Options{
		Instrument:    dep.Instrument,
		RetryAttempts: uint64(dep.Config.GetUint("modules.authenticator.registry.retry_attempts")),
		RetryBase:     dep.Config.GetMillisecond("modules.authenticator.registry.retry_base_ms"),
	})
	if err != nil {
		return err
	}

	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		Registry:      reg,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Scanner:       dep.Scanner,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		UUID:          dep.UUID,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	maxImage := dep.Config.GetInt64("modules.authenticator.max_image_bytes")
	if maxImage <= 0 {
		maxImage = defaultMaxImageBytes
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc, maxImage)

	return nil
}

func backendOptions(dep Dependency) registry.BackendOptions {
	opts := registry.BackendOptions{
		FilePath:      dep.Config.GetString("modules.authenticator.registry.file_path"),
		RedisKey:      dep.Config.GetString("modules.authenticator.registry.redis_key"),
		PostgresTable: dep.Config.GetString("modules.authenticator.registry.postgres_table"),
		Storage:       dep.Storage,
		Bucket:        dep.Config.GetString("modules.authenticator.registry.bucket"),
		ObjectKey:     dep.Config.GetString("modules.authenticator.registry.object_key"),
	}
	// typed nil pointers must not reach the interface fields
	if dep.DBConn != nil {
		opts.Postgres = dep.DBConn
	}
	if dep.CacheConn != nil {
		opts.Redis = dep.CacheConn
	}
	return opts
}
