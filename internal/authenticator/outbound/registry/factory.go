package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/storage"
)

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverObject   = "object"
)

var (
	ErrUnknownDriver = errors.New("registry: unknown driver")
	// ErrResourceMissing is returned when the driver needs a connection that
	// is not enabled.
	ErrResourceMissing = errors.New("registry: required resource is not configured")
)

type BackendOptions struct {
	FilePath string

	Redis    redis.Cmdable
	RedisKey string

	Postgres      Commander
	PostgresTable string

	Storage   storage.Storage
	Bucket    string
	ObjectKey string
}

// NewBackendFromDriver builds the backend selected by driver.
func NewBackendFromDriver(ctx context.Context, driver string, opts BackendOptions) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverFile, "":
		if opts.FilePath == "" {
			return nil, fmt.Errorf("%w: file path", ErrResourceMissing)
		}
		return NewFileBackend(opts.FilePath), nil
	case DriverRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("%w: redis", ErrResourceMissing)
		}
		return NewRedisBackend(opts.Redis, opts.RedisKey), nil
	case DriverPostgres:
		if opts.Postgres == nil {
			return nil, fmt.Errorf("%w: database", ErrResourceMissing)
		}
		return NewPostgresBackend(ctx, opts.Postgres, opts.PostgresTable)
	case DriverObject:
		if opts.Storage == nil || opts.Bucket == "" {
			return nil, fmt.Errorf("%w: storage bucket", ErrResourceMissing)
		}
		return NewObjectBackend(opts.Storage, opts.Bucket, opts.ObjectKey), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
