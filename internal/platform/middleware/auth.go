package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"meridian/internal/transport/http/shared"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/requestcontext"
)

// AdminTokenValidator validates admin bearer tokens.
type AdminTokenValidator interface {
	ValidateToken(tokenString string) (*AdminClaims, error)
}

// AdminClaims is what the middleware needs from a validated admin token.
type AdminClaims struct {
	AdminID string
}

// RequireAdmin rejects requests without a valid admin bearer token and puts
// the admin identity into the request context.
func RequireAdmin(validator AdminTokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("admin token rejected",
					"path", r.URL.Path,
					"error", err,
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token rejected"))
				return
			}

			ctx := requestcontext.WithAdminID(r.Context(), claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
