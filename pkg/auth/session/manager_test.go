package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	redisclient "github.com/angelmondragon/foodbridge-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) AccessSessionKey(id string) string { return "sess:" + id }

func testManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	s := newMemStore()
	m, err := newManager(s, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 600})
	require.NoError(t, err)
	return m, s
}

func TestOpenRotateClose(t *testing.T) {
	ctx := context.Background()
	m, s := testManager(t)
	userID := uuid.New()

	token, err := m.Open(ctx, "sid-1", userID)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, s.ttls["sess:sid-1"])

	_, _, _, err = m.Rotate(ctx, "sid-1", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))

	nextID, nextToken, gotUser, err := m.Rotate(ctx, "sid-1", token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotUser)
	assert.NotEqual(t, token, nextToken)

	active, err := m.Active(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, active, "rotated session must be retired")

	active, err = m.Active(ctx, nextID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, m.Close(ctx, nextID))
	active, _ = m.Active(ctx, nextID)
	assert.False(t, active)
}

func TestRotateUnknownSession(t *testing.T) {
	m, _ := testManager(t)
	_, _, _, err := m.Rotate(context.Background(), "missing", "token")
	assert.True(t, errors.Is(err, ErrInvalidRefreshToken))
}

func TestNewManagerRequiresRefreshLongerThanAccess(t *testing.T) {
	_, err := newManager(newMemStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)
	_, err = newManager(newMemStore(), config.JWTConfig{ExpirationMinutes: 60})
	assert.Error(t, err)
}
