package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"meridian/internal/onboarding/models"
	"meridian/internal/transport/http/shared"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

// RegisterAdmin mounts the admin lifecycle endpoints. The caller wraps the
// router with the admin auth middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/subjects", h.handleCreateSubject)
	r.Get("/subjects/{id}", h.handleGetSubject)
	r.Post("/subjects/{id}/transition", h.handleTransition)
	r.Post("/subjects/{id}/offer", h.handleSendOffer)
	r.Post("/subjects/{id}/accept-offer", h.handleAcceptOffer)
	r.Post("/subjects/{id}/onboarding-link", h.handleResendOnboardingLink)
	r.Post("/subjects/{id}/interview-link", h.handleInterviewLink)
	r.Post("/subjects/{id}/provision", h.handleProvision)
}

func subjectIDParam(r *http.Request) (id.SubjectID, error) {
	return id.ParseSubjectID(chi.URLParam(r, "id"))
}

func (h *Handler) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	subject, err := h.svc.CreateSubject(r.Context(), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, subject)
}

func (h *Handler) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	subject, err := h.svc.GetSubject(r.Context(), subjectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, subject)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req models.TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	next, err := id.ParseSubjectStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	subject, err := h.svc.Transition(r.Context(), subjectID, next)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, subject)
}

func (h *Handler) handleSendOffer(w http.ResponseWriter, r *http.Request) {
	h.issueToken(w, r, h.svc.SendOffer)
}

func (h *Handler) handleResendOnboardingLink(w http.ResponseWriter, r *http.Request) {
	h.issueToken(w, r, h.svc.ResendOnboardingLink)
}

func (h *Handler) handleInterviewLink(w http.ResponseWriter, r *http.Request) {
	h.issueToken(w, r, h.svc.IssueInterviewLink)
}

func (h *Handler) issueToken(
	w http.ResponseWriter,
	r *http.Request,
	issue func(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error),
) {
	subjectID, err := subjectIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	token, err := issue(r.Context(), subjectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, token)
}

func (h *Handler) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return
	}
	token, err := h.svc.AcceptOffer(r.Context(), subjectID, req.Token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, token)
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	subjectID, err := subjectIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	result, err := h.svc.Provision(r.Context(), subjectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
