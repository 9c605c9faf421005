package testutil

import (
	"context"
	"net/http"
	"time"

	"meridian/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock on an HTTP request, the way
// the requesttime middleware would.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithAdmin marks the request as an authenticated admin call, skipping the
// JWT middleware.
func WithAdmin(req *http.Request, adminID string) *http.Request {
	return req.WithContext(requestcontext.WithAdminID(req.Context(), adminID))
}

// Ctx returns a context with a pinned clock for service unit tests.
func Ctx(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
