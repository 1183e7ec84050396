package cache

import (
	"fmt"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
	"github.com/angelmondragon/foodbridge-backend/pkg/metrics"
)

// FromConfig builds the dispatcher for the configured backend. store is
// only consulted for the redis backend.
func FromConfig(cfg config.CacheConfig, store redisStore, logg *logger.Logger, m *metrics.CacheMetrics) (*Dispatcher, error) {
	var backend Cache
	switch cfg.Backend {
	case config.CacheBackendOff:
		backend = Nop{}
	case config.CacheBackendRedis:
		r, err := NewRedis(store)
		if err != nil {
			return nil, err
		}
		backend = r
	case config.CacheBackendMemory, "":
		backend = NewMemory()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	return NewDispatcher(DispatcherParams{
		Cache:   backend,
		Logger:  logg,
		Metrics: m,
		Policy:  Policy{Shared: cfg.SharedTTL, Entity: cfg.EntityTTL},
	}), nil
}
