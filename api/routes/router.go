package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodbridge-backend/api/controllers"
	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/internal/auth"
	"github.com/angelmondragon/foodbridge-backend/internal/chat"
	"github.com/angelmondragon/foodbridge-backend/internal/foodai"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/internal/profiles"
	"github.com/angelmondragon/foodbridge-backend/internal/requests"
	pkgAuth "github.com/angelmondragon/foodbridge-backend/pkg/auth"
	"github.com/angelmondragon/foodbridge-backend/pkg/auth/session"
	"github.com/angelmondragon/foodbridge-backend/pkg/config"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type tokenParser interface {
	Parse(token string) (*pkgAuth.Claims, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router mounts. Nil pingers are reported as
// skipped by the readiness probe; a nil RateLimiter disables auth throttling
// and a nil Gatherer drops the /metrics endpoint.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Checks   []controllers.Check
	Gatherer prometheus.Gatherer

	Issuer      tokenParser
	Sessions    session.Checker
	RateLimiter rateLimiter

	Auth     auth.Service
	Profiles profiles.Service
	Listings listings.Service
	Requests requests.Service
	Chat     chat.Service
	FoodAI   foodai.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Checks...))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.RateLimiter, logg)).Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	business := middleware.RequireUserType(enums.UserTypeBusiness, logg)
	shelter := middleware.RequireUserType(enums.UserTypeShelter, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Issuer, d.Sessions, logg))

		r.Get("/profile", controllers.ProfileGet(d.Profiles, logg))
		r.Patch("/profile", controllers.ProfileUpdate(d.Profiles, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListingsList(d.Listings, logg))
			r.With(business).Post("/", controllers.ListingCreate(d.Listings, logg))
			r.With(business).Get("/mine", controllers.ListingsMine(d.Listings, logg))
			r.Route("/{listingId}", func(r chi.Router) {
				r.Get("/", controllers.ListingGet(d.Listings, logg))
				r.With(business).Patch("/", controllers.ListingUpdate(d.Listings, logg))
				r.With(business).Delete("/", controllers.ListingDelete(d.Listings, logg))
				r.With(business).Post("/claim", controllers.ListingClaim(d.Listings, logg))
				r.With(business).Get("/requests", controllers.ListingRequestsList(d.Requests, logg))
				r.With(shelter).Post("/requests", controllers.RequestCreate(d.Requests, logg))
			})
		})

		r.Route("/requests", func(r chi.Router) {
			r.With(business).Get("/business", controllers.RequestsBusiness(d.Requests, logg))
			r.With(shelter).Get("/shelter", controllers.RequestsShelter(d.Requests, logg))
			r.With(business).Post("/{requestId}/accept", controllers.RequestAccept(d.Requests, logg))
			r.With(business).Post("/{requestId}/reject", controllers.RequestReject(d.Requests, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/rooms", controllers.ChatRoomsList(d.Chat, logg))
			r.Post("/rooms", controllers.ChatRoomCreate(d.Chat, logg))
			r.Get("/rooms/{roomId}", controllers.ChatRoomGet(d.Chat, logg))
			r.Get("/rooms/{roomId}/messages", controllers.ChatMessagesList(d.Chat, logg))
			r.Post("/rooms/{roomId}/messages", controllers.ChatMessageSend(d.Chat, logg))
			r.Get("/unread-count", controllers.ChatUnreadCount(d.Chat, logg))
		})

		r.Post("/ai/analyze-food-image", controllers.AnalyzeFoodImage(d.FoodAI, logg))
	})

	return r
}
