package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/foodbridge-backend/api/controllers"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	pkgAuth "github.com/angelmondragon/foodbridge-backend/pkg/auth"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct {
	active bool
}

func (s stubSessions) Active(context.Context, string) (bool, error) {
	return s.active, nil
}

type stubListings struct {
	listings.Service
}

func (stubListings) GetAllListings(context.Context, uuid.UUID) ([]listings.ListingDTO, error) {
	return []listings.ListingDTO{}, nil
}

func (stubListings) GetBusinessListings(context.Context, uuid.UUID) ([]listings.ListingDTO, error) {
	return []listings.ListingDTO{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "foodbridge", ExpirationMinutes: 15},
	}
}

func testIssuer(t *testing.T, cfg *config.Config) *pkgAuth.Issuer {
	t.Helper()
	issuer, err := pkgAuth.NewIssuer(cfg.JWT)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func buildToken(t *testing.T, issuer *pkgAuth.Issuer, userType enums.UserType) string {
	t.Helper()
	token, _, err := issuer.Mint(pkgAuth.Subject{UserID: uuid.New(), Email: "user@example.org", UserType: userType})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return token
}

func newTestRouter(t *testing.T, sessionsActive bool, gatherer prometheus.Gatherer) (http.Handler, *pkgAuth.Issuer) {
	t.Helper()
	cfg := testConfig()
	issuer := testIssuer(t, cfg)
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		Checks:   []controllers.Check{{Name: "db", Pinger: stubPinger{}}, {Name: "redis"}},
		Gatherer: gatherer,
		Issuer:   issuer,
		Sessions: stubSessions{active: sessionsActive},
		Listings: stubListings{},
	}), issuer
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutesArePublic(t *testing.T) {
	router, _ := newTestRouter(t, true, nil)
	if resp := serve(router, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/health/ready", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router, _ := newTestRouter(t, true, nil)
	resp := serve(router, http.MethodGet, "/api/v1/listings", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsClosedSession(t *testing.T) {
	router, issuer := newTestRouter(t, false, nil)
	resp := serve(router, http.MethodGet, "/api/v1/listings", buildToken(t, issuer, enums.UserTypeShelter))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for closed session got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	router, issuer := newTestRouter(t, true, nil)
	resp := serve(router, http.MethodGet, "/api/v1/listings", buildToken(t, issuer, enums.UserTypeShelter))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for listings got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBusinessRoutesRequireBusiness(t *testing.T) {
	router, issuer := newTestRouter(t, true, nil)

	resp := serve(router, http.MethodGet, "/api/v1/listings/mine", buildToken(t, issuer, enums.UserTypeShelter))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for shelter on /mine got %d", resp.Code)
	}
	resp = serve(router, http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/claim", buildToken(t, issuer, enums.UserTypeShelter))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for shelter claim got %d", resp.Code)
	}
	resp = serve(router, http.MethodGet, "/api/v1/listings/mine", buildToken(t, issuer, enums.UserTypeBusiness))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for business on /mine got %d", resp.Code)
	}
}

func TestCreateRequestRequiresShelter(t *testing.T) {
	router, issuer := newTestRouter(t, true, nil)
	resp := serve(router, http.MethodPost, "/api/v1/listings/"+uuid.NewString()+"/requests", buildToken(t, issuer, enums.UserTypeBusiness))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for business creating a request got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "foodbridge_router_test_total", Help: "test counter"})
	reg.MustRegister(counter)
	counter.Inc()

	router, _ := newTestRouter(t, true, reg)
	resp := serve(router, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "foodbridge_router_test_total 1") {
		t.Fatalf("metrics body missing counter: %s", resp.Body.String())
	}

	router, _ = newTestRouter(t, true, nil)
	if resp := serve(router, http.MethodGet, "/metrics", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without gatherer got %d", resp.Code)
	}
}
