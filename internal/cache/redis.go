package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"
)

type logger interface {
	Errorf(format string, v ...any)
}

// Redis is a Cache backed by a Redis instance, for deployments where the
// response cache should survive process restarts. Expiry is delegated to
// Redis TTLs, so there is no sweep to run.
type Redis struct {
	Client *redis.Client
	Logger logger
}

func NewRedis(address string, log logger) *Redis {
	return &Redis{
		Client: redis.NewClient(&redis.Options{Addr: address}),
		Logger: log,
	}
}

func (r *Redis) Set(key string, value []byte, ttl time.Duration) {
	if err := r.Client.Set(context.Background(), key, value, ttl).Err(); err != nil {
		r.Logger.Errorf("Redis cache: Error setting key: %s, err: %v", key, err)
	}
}

func (r *Redis) Get(key string) ([]byte, bool) {
	val, err := r.Client.Get(context.Background(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.Logger.Errorf("Redis cache: Error getting key: %s, err: %v", key, err)
		}
		return nil, false
	}
	return val, true
}

func (r *Redis) Has(key string) bool {
	n, err := r.Client.Exists(context.Background(), key).Result()
	if err != nil {
		r.Logger.Errorf("Redis cache: Error checking key: %s, err: %v", key, err)
		return false
	}
	return n > 0
}

func (r *Redis) Delete(key string) {
	if err := r.Client.Del(context.Background(), key).Err(); err != nil {
		r.Logger.Errorf("Redis cache: Error deleting key: %s, err: %v", key, err)
	}
}

func (r *Redis) Clear() {
	if err := r.Client.FlushDB(context.Background()).Err(); err != nil {
		r.Logger.Errorf("Redis cache: Error flushing db, err: %v", err)
	}
}

func (r *Redis) Stop() {
	if err := r.Client.Close(); err != nil {
		r.Logger.Errorf("Redis cache: Error closing client, err: %v", err)
	}
}
