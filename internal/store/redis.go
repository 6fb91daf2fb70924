package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of the go-redis client we depend on, so tests can
// substitute a fake without a running server.
type redisClient interface {
	SetArgs(ctx context.Context, key string, value interface{}, a redis.SetArgs) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore implements Store on Redis. Both atomic primitives map to single
// server-side commands (SET NX GET and GETDEL), so their guarantees hold
// across processes sharing the same Redis instance or cluster.
type RedisStore struct {
	client redisClient
}

// NewRedisStore wraps an already-configured go-redis client.
func NewRedisStore(client redisClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	return &RedisStore{client: client}, nil
}

// CreateOrGet issues SET key value NX GET. Redis returns the previous value
// when the key already existed (the SET is skipped), and nil when our value
// was stored, which go-redis surfaces as redis.Nil.
func (s *RedisStore) CreateOrGet(ctx context.Context, key, value string) (string, error) {
	prev, err := s.client.SetArgs(ctx, key, value, redis.SetArgs{Mode: "NX", Get: true}).Result()
	if errors.Is(err, redis.Nil) {
		// Key was absent; our value won.
		return value, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: set nx get %q: %v", ErrStoreUnavailable, key, err)
	}
	return prev, nil
}

func (s *RedisStore) GetDelete(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: getdel %q: %v", ErrStoreUnavailable, key, err)
	}
	return val, nil
}

func (s *RedisStore) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: setex %q: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: get %q: %v", ErrStoreUnavailable, key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
	}
	return nil
}
