package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
)

func TestFromConfigSelectsBackend(t *testing.T) {
	d, err := FromConfig(config.CacheConfig{Backend: config.CacheBackendOff}, nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, d.cache)

	d, err = FromConfig(config.CacheConfig{Backend: config.CacheBackendMemory, SharedTTL: 2 * time.Second}, nil, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, d.cache)
	assert.Equal(t, 2*time.Second, d.Policy().Shared)
	assert.Equal(t, EntityTTL, d.Policy().Entity)

	_, err = FromConfig(config.CacheConfig{Backend: config.CacheBackendRedis}, nil, nil, nil)
	assert.Error(t, err)

	_, err = FromConfig(config.CacheConfig{Backend: "memcached"}, nil, nil, nil)
	assert.Error(t, err)
}
