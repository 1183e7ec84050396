// Package session keeps refresh sessions in Redis, keyed by the access
// token's jti.
package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	redisclient "github.com/angelmondragon/foodbridge-backend/pkg/redis"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Checker is the read-only view the auth middleware needs.
type Checker interface {
	Active(ctx context.Context, sessionID string) (bool, error)
}

type record struct {
	UserID       uuid.UUID `json:"user_id"`
	RefreshToken string    `json:"refresh_token"`
}

// Manager opens, rotates and closes refresh sessions.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newManager(client, cfg)
}

func newManager(s store, cfg config.JWTConfig) (*Manager, error) {
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if ttl <= cfg.AccessTTL() {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, cfg.AccessTTL())
	}
	return &Manager{store: s, ttl: ttl}, nil
}

// Open stores a new refresh token for sessionID and returns it.
func (m *Manager) Open(ctx context.Context, sessionID string, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	token, err := newRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.put(ctx, sessionID, record{UserID: userID, RefreshToken: token}); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate retires oldSessionID after checking provided against its token and
// opens a fresh session for the same user.
func (m *Manager) Rotate(ctx context.Context, oldSessionID, provided string) (string, string, uuid.UUID, error) {
	if strings.TrimSpace(oldSessionID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", uuid.Nil, ErrInvalidRefreshToken
	}
	current, err := m.load(ctx, oldSessionID)
	if err != nil {
		return "", "", uuid.Nil, err
	}
	if subtle.ConstantTimeCompare([]byte(current.RefreshToken), []byte(provided)) != 1 {
		return "", "", uuid.Nil, ErrInvalidRefreshToken
	}

	nextID := uuid.NewString()
	token, err := m.Open(ctx, nextID, current.UserID)
	if err != nil {
		return "", "", uuid.Nil, err
	}
	if err := m.store.Del(ctx, m.store.AccessSessionKey(oldSessionID)); err != nil {
		return "", "", uuid.Nil, err
	}
	return nextID, token, current.UserID, nil
}

// Close drops the session. Closing an unknown session is not an error.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(sessionID))
}

func (m *Manager) Active(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, nil
	}
	if _, err := m.load(ctx, sessionID); err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Manager) put(ctx context.Context, sessionID string, rec record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return m.store.Set(ctx, m.store.AccessSessionKey(sessionID), string(payload), m.ttl)
}

func (m *Manager) load(ctx context.Context, sessionID string) (record, error) {
	raw, err := m.store.Get(ctx, m.store.AccessSessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return record{}, ErrInvalidRefreshToken
		}
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, ErrInvalidRefreshToken
	}
	return rec, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
