package matching

import (
	"context"
	"time"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/redis"
)

// RedisLocker adapts the redis locker to the engine's Locker interface
type RedisLocker struct {
	Locker *redis.Locker
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := r.Locker.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, err
	}
	return lock, nil
}
