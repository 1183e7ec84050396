package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Invalidate(context.Context, ...string) error { return errors.New("down") }

type row struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestFetchCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(DispatcherParams{Cache: NewMemory(), Metrics: metrics.NewCacheMetrics(prometheus.NewRegistry())})

	calls := 0
	load := func(context.Context) ([]row, error) {
		calls++
		return []row{{ID: 1, Name: "bread"}}, nil
	}

	first, err := Fetch(ctx, d, AllListings(), d.Policy().Shared, load)
	require.NoError(t, err)
	second, err := Fetch(ctx, d, AllListings(), d.Policy().Shared, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(DispatcherParams{Cache: NewMemory()})
	calls := 0
	load := func(context.Context) (row, error) {
		calls++
		return row{}, errors.New("db down")
	}

	_, err := Fetch(ctx, d, "k", time.Minute, load)
	require.Error(t, err)
	_, err = Fetch(ctx, d, "k", time.Minute, load)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchFallsThroughBrokenBackend(t *testing.T) {
	ctx := context.Background()
	d := NewDispatcher(DispatcherParams{Cache: brokenCache{}})

	got, err := Fetch(ctx, d, "k", time.Minute, func(context.Context) (row, error) {
		return row{ID: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.ID)

	assert.NotPanics(t, func() { d.Apply(ctx, Invalidate("k")) })
}

func TestFetchWithNilDispatcherLoadsDirectly(t *testing.T) {
	got, err := Fetch(context.Background(), nil, "k", time.Minute, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestApplyDropsKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	d := NewDispatcher(DispatcherParams{Cache: mem})
	require.NoError(t, mem.Set(ctx, "a", []byte(`1`), time.Minute))
	require.NoError(t, mem.Set(ctx, "b", []byte(`2`), time.Minute))

	d.Apply(ctx, Invalidate("a"))

	_, ok, _ := mem.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = mem.Get(ctx, "b")
	assert.True(t, ok)
}

func TestFetchRecoversFromCorruptEntry(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	d := NewDispatcher(DispatcherParams{Cache: mem})
	require.NoError(t, mem.Set(ctx, "k", []byte(`not json`), time.Minute))

	got, err := Fetch(ctx, d, "k", time.Minute, func(context.Context) (row, error) {
		return row{ID: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.ID)

	raw, ok, _ := mem.Get(ctx, "k")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":3,"name":""}`, string(raw))
}

func TestDefaultPolicy(t *testing.T) {
	d := NewDispatcher(DispatcherParams{})
	assert.Equal(t, 5*time.Second, d.Policy().Shared)
	assert.Equal(t, 10*time.Second, d.Policy().Entity)
}
