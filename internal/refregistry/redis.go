package refregistry

import (
	"context"
	"time"

	platformredis "github.com/pkwroblewski/CBCR-TP-sub001/internal/platform/redis"
)

const keyPrefix = "cbcr:msgref:"

// RedisRegistry shares duplicate detection across replicas. SET NX with a
// TTL makes Register atomic under concurrent submissions.
type RedisRegistry struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisRegistry(client *platformredis.Client, ttl time.Duration) *RedisRegistry {
	return &RedisRegistry{client: client, ttl: ttl}
}

func (r *RedisRegistry) Register(ctx context.Context, refID string) (bool, error) {
	return r.client.SetNX(ctx, keyPrefix+refID, "1", r.ttl).Result()
}

func (r *RedisRegistry) Exists(ctx context.Context, refID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+refID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
