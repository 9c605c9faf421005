package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"meridian/internal/transport/http/shared"
	dErrors "meridian/pkg/domain-errors"
)

// Recovery turns a handler panic into a 500 instead of a dropped
// connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
					shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
