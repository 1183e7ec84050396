package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

// Dispatcher fronts a Cache for services: it serves typed reads through
// Fetch and applies mutation invalidations centrally. Backend failures are
// logged and swallowed.
type Dispatcher struct {
	cache   Cache
	logg    *logger.Logger
	metrics *metrics.CacheMetrics
	policy  Policy
}

type DispatcherParams struct {
	Cache   Cache
	Logger  *logger.Logger
	Metrics *metrics.CacheMetrics
	Policy  Policy
}

func NewDispatcher(params DispatcherParams) *Dispatcher {
	c := params.Cache
	if c == nil {
		c = Nop{}
	}
	policy := params.Policy
	if policy.Shared <= 0 {
		policy.Shared = SharedTTL
	}
	if policy.Entity <= 0 {
		policy.Entity = EntityTTL
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{cache: c, logg: logg, metrics: params.Metrics, policy: policy}
}

func (d *Dispatcher) Policy() Policy {
	if d == nil {
		return DefaultPolicy()
	}
	return d.policy
}

// Apply drops every key in inv.
func (d *Dispatcher) Apply(ctx context.Context, inv Invalidation) {
	if d == nil {
		return
	}
	keys := inv.Keys()
	if len(keys) == 0 {
		return
	}
	if err := d.cache.Invalidate(ctx, keys...); err != nil {
		d.metrics.Error("invalidate")
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"keys": keys, "error": err.Error()}), "query cache invalidation failed")
		return
	}
	d.metrics.Invalidated(len(keys))
}

// Fetch returns the cached value for key or runs load and caches its result.
// Loader errors are returned and never cached.
func Fetch[T any](ctx context.Context, d *Dispatcher, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if d == nil {
		return load(ctx)
	}
	view := viewOf(key)

	raw, ok, err := d.cache.Get(ctx, key)
	switch {
	case err != nil:
		d.metrics.Error("get")
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "query cache read failed")
	case ok:
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			d.metrics.Hit(view)
			return cached, nil
		}
		d.metrics.Error("decode")
	}
	d.metrics.Miss(view)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		d.metrics.Error("encode")
		return value, nil
	}
	if err := d.cache.Set(ctx, key, encoded, ttl); err != nil {
		d.metrics.Error("set")
		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "query cache write failed")
	}
	return value, nil
}
