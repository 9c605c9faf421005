package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meridian/internal/onboarding/models"
	"meridian/internal/transport/http/shared"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/requestcontext"
)

// RegisterPublic mounts the practitioner-facing endpoints. Both sit behind
// the bad-token throttle keyed by client IP.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/onboarding/{token}", h.handlePeek)
	r.Post("/onboarding/complete", h.handleComplete)
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request) bool {
	key := requestcontext.ClientIP(r.Context())
	if key == "" {
		key = r.RemoteAddr
	}
	ok, err := h.throttle.Allow(r.Context(), key)
	if err != nil {
		// The throttle fails open; log and carry on.
		h.logger.WarnContext(r.Context(), "throttle check failed", "error", err)
	}
	if !ok {
		shared.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
			"error": "too many attempts, try again later",
		})
		return false
	}
	return true
}

func (h *Handler) handlePeek(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	preview, err := h.svc.PeekToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, preview)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}
	var req models.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	result, err := h.svc.CompleteOnboarding(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
