package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/foodbridge-backend/pkg/redis"
)

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	QueryCacheKey(key string) string
}

// Redis shares cache entries between API instances. Expiry is delegated
// to the key TTL, so a read after expiry is a plain miss.
type Redis struct {
	store redisStore
}

func NewRedis(store redisStore) (*Redis, error) {
	if store == nil {
		return nil, errors.New("redis store required for query cache")
	}
	return &Redis{store: store}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.store.Get(ctx, r.store.QueryCacheKey(key))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis cache get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return r.Invalidate(ctx, key)
	}
	if err := r.store.Set(ctx, r.store.QueryCacheKey(key), value, ttl); err != nil {
		return fmt.Errorf("redis cache set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.store.QueryCacheKey(key))
	}
	if err := r.store.Del(ctx, namespaced...); err != nil {
		return fmt.Errorf("redis cache invalidate: %w", err)
	}
	return nil
}
