package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/foodbridge-backend/api/responses"
	pkgAuth "github.com/angelmondragon/foodbridge-backend/pkg/auth"
	"github.com/angelmondragon/foodbridge-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type tokenParser interface {
	Parse(token string) (*pkgAuth.Claims, error)
}

// Auth validates the bearer token, checks that its session is still open
// and seeds the request context with the caller identity.
func Auth(parser tokenParser, sessions session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := parser.Parse(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if sessions != nil {
				ok, err := sessions.Active(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired"))
					return
				}
			}

			ctx := WithUser(r.Context(), claims.UserID, claims.UserType)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithUserType(ctx, string(claims.UserType))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The
// "Bearer " prefix is optional.
func BearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
