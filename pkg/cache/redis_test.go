package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	redisclient "github.com/angelmondragon/foodbridge-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedisStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	deleted []string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (f *fakeRedisStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeRedisStore) QueryCacheKey(key string) string { return "fb:qc:" + key }

func TestRedisCacheNamespacesKeysAndDelegatesTTL(t *testing.T) {
	ctx := context.Background()
	store := newFakeRedisStore()
	c, err := NewRedis(store)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "all_listings", []byte(`[1]`), SharedTTL))
	assert.Equal(t, SharedTTL, store.ttls["fb:qc:all_listings"])

	got, ok, err := c.Get(ctx, "all_listings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, c.Invalidate(ctx, "all_listings", "listing_x"))
	assert.Equal(t, []string{"fb:qc:all_listings", "fb:qc:listing_x"}, store.deleted)

	_, ok, err = c.Get(ctx, "all_listings")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheSurfacesBackendErrors(t *testing.T) {
	store := newFakeRedisStore()
	store.getErr = errors.New("connection refused")
	c, err := NewRedis(store)
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestNewRedisRequiresStore(t *testing.T) {
	_, err := NewRedis(nil)
	assert.Error(t, err)
}
