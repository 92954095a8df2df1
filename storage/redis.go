package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis server. Expiry is delegated to Redis
// itself (SET with EX) and TakeValue maps to GETDEL, which Redis executes
// atomically, so racing consumers are serialized by the server.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis-backed store. All keys are stored under
// prefix + ":"; an empty prefix defaults to "ocrauth".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "ocrauth"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// SetValue implements Store.
func (r *Redis) SetValue(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetValue implements Store.
func (r *Redis) GetValue(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// TakeValue implements Store.
func (r *Redis) TakeValue(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.GetDel(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// UnsetValue implements Store.
func (r *Redis) UnsetValue(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
