package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/sweetshop-backend/api/responses"
	"github.com/angelmondragon/sweetshop-backend/api/validators"
	pkgAuth "github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

// Auth admits requests carrying a valid bearer token whose session has not
// been revoked, and puts the actor on the request context.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := authenticate(r.Context(), cfg, sessions, r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActor(ctx, actor.UserID, string(actor.Role), actor.SessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, sessions session.AccessSessionChecker, header string) (pkgAuth.Actor, error) {
	raw, err := validators.BearerToken(header)
	if err != nil {
		return pkgAuth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, raw)
	if err != nil {
		return pkgAuth.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if sessions == nil {
		return claims.Actor(), nil
	}
	live, err := sessions.HasSession(ctx, claims.ID)
	switch {
	case err != nil:
		return pkgAuth.Actor{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case !live:
		return pkgAuth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired")
	}
	return claims.Actor(), nil
}
