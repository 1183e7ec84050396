package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/internal/auth"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/internal/users"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type fakeAuth struct {
	registerFn func(ctx context.Context, req auth.RegisterRequest) (*auth.SessionResponse, error)
	refreshFn  func(ctx context.Context, access, refresh string) (*auth.TokenPair, error)
	logoutFn   func(ctx context.Context, access string) error
}

func (f *fakeAuth) Register(ctx context.Context, req auth.RegisterRequest) (*auth.SessionResponse, error) {
	return f.registerFn(ctx, req)
}

func (f *fakeAuth) Login(context.Context, auth.LoginRequest) (*auth.SessionResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (f *fakeAuth) Refresh(ctx context.Context, access, refresh string) (*auth.TokenPair, error) {
	return f.refreshFn(ctx, access, refresh)
}

func (f *fakeAuth) Logout(ctx context.Context, access string) error {
	return f.logoutFn(ctx, access)
}

func TestAuthRegisterCreated(t *testing.T) {
	svc := &fakeAuth{registerFn: func(_ context.Context, req auth.RegisterRequest) (*auth.SessionResponse, error) {
		require.NotNil(t, req.ShelterName)
		assert.Equal(t, "Hope House", *req.ShelterName)
		return &auth.SessionResponse{
			TokenPair: auth.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
			User:      &users.UserDTO{Email: req.Email},
			Profile:   &profiles.ProfileDTO{},
		}, nil
	}}
	body := `{"email":"hope@example.org","password":"long enough","user_type":"shelter","shelter_name":"<i>Hope House</i>"}`
	rec := httptest.NewRecorder()
	AuthRegister(svc, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out auth.SessionResponse
	decodeData(t, rec, &out)
	assert.Equal(t, "a", out.AccessToken)
	assert.Equal(t, "hope@example.org", out.User.Email)
}

func TestAuthRegisterValidatesBody(t *testing.T) {
	svc := &fakeAuth{}
	rec := httptest.NewRecorder()
	AuthRegister(svc, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"x","password":"short","user_type":"donor"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRefreshNeedsAccessToken(t *testing.T) {
	svc := &fakeAuth{refreshFn: func(_ context.Context, access, refresh string) (*auth.TokenPair, error) {
		assert.Equal(t, "expired-access", access)
		assert.Equal(t, "refresh-1", refresh)
		return &auth.TokenPair{AccessToken: "next"}, nil
	}}

	rec := httptest.NewRecorder()
	AuthRefresh(svc, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refresh_token":"refresh-1"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refresh_token":"refresh-1"}`))
	req.Header.Set("Authorization", "Bearer expired-access")
	rec = httptest.NewRecorder()
	AuthRefresh(svc, logger.Nop())(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var pair auth.TokenPair
	decodeData(t, rec, &pair)
	assert.Equal(t, "next", pair.AccessToken)
}

func TestAuthLoginFailureIs401(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogin(&fakeAuth{}, logger.Nop())(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.org","password":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, Check{Name: "db", Pinger: up}, Check{Name: "redis"})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]string
	decodeData(t, rec, &status)
	assert.Equal(t, "up", status["db"])
	assert.Equal(t, "skipped", status["redis"])
	assert.Equal(t, "test", rec.Header().Get("X-FoodBridge-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, Check{Name: "db", Pinger: down})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
