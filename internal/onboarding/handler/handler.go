// Package handler exposes the onboarding workflow over HTTP. Handlers stay
// thin: decode, call the service, translate the error.
package handler

import (
	"context"
	"log/slog"

	applicant "meridian/internal/applicant/models"
	"meridian/internal/onboarding/models"
	"meridian/internal/onboarding/throttle"
	id "meridian/pkg/domain"
)

// Service is the workflow surface the handlers need.
type Service interface {
	CreateSubject(ctx context.Context, req models.CreateSubjectRequest) (*applicant.Subject, error)
	GetSubject(ctx context.Context, subjectID id.SubjectID) (*applicant.Subject, error)
	Transition(ctx context.Context, subjectID id.SubjectID, next id.SubjectStatus) (*applicant.Subject, error)
	SendOffer(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error)
	AcceptOffer(ctx context.Context, subjectID id.SubjectID, tokenValue string) (*models.IssuedToken, error)
	ResendOnboardingLink(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error)
	IssueInterviewLink(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error)
	PeekToken(ctx context.Context, value string) (*models.TokenPreview, error)
	CompleteOnboarding(ctx context.Context, req models.CompleteRequest) (*models.ProvisioningResult, error)
	Provision(ctx context.Context, subjectID id.SubjectID) (*models.ProvisioningResult, error)
}

// Handler wires the workflow endpoints.
type Handler struct {
	svc      Service
	throttle throttle.Throttle
	logger   *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func New(svc Service, th throttle.Throttle, opts ...Option) *Handler {
	h := &Handler{
		svc:      svc,
		throttle: th,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
