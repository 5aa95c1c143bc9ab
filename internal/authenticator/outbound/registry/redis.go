package registry

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "otpkeeper:authenticator:secrets"

// RedisBackend stores the registry in one hash, one field per account.
type RedisBackend struct {
	client redis.Cmdable
	key    string
}

func NewRedisBackend(client redis.Cmdable, key string) *RedisBackend {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

func (r *RedisBackend) Name() string { return DriverRedis }

func (r *RedisBackend) Load(ctx context.Context) (map[string]string, error) {
	return r.client.HGetAll(ctx, r.key).Result()
}

// Store writes only the changed fields.
func (r *RedisBackend) Store(ctx context.Context, _, changed map[string]string) error {
	if len(changed) == 0 {
		return nil
	}

	values := make([]any, 0, len(changed)*2)
	for name, secret := range changed {
		values = append(values, name, secret)
	}

	return r.client.HSet(ctx, r.key, values...).Err()
}
