// Package service implements the onboarding workflow: applicant lifecycle
// moves, single-use token issue/peek/consume, and the provisioning run that
// turns an accepted offer into a working practitioner.
package service

import (
	"context"
	"log/slog"
	"time"

	applicant "meridian/internal/applicant/models"
	"meridian/internal/directory"
	"meridian/internal/onboarding/metrics"
	"meridian/internal/pms"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/tx"
)

// SubjectStore is the persistence contract for subjects. Execute holds a
// row lock around validate-then-mutate; the Save/Complete methods are the
// saga's durable checkpoints.
type SubjectStore interface {
	Create(ctx context.Context, subject *applicant.Subject) error
	FindByID(ctx context.Context, subjectID id.SubjectID) (*applicant.Subject, error)
	Execute(ctx context.Context, subjectID id.SubjectID, validate func(*applicant.Subject) error, mutate func(*applicant.Subject)) (*applicant.Subject, error)
	SaveIdentity(ctx context.Context, subjectID id.SubjectID, directoryID, corporateEmail string, licenseAssigned bool, passwordHash string, now time.Time) error
	CompleteProvisioning(ctx context.Context, subjectID id.SubjectID, pmsRecordID, pmsSubRoleID string, now time.Time) (*applicant.Subject, error)
	SaveNotesEnabled(ctx context.Context, subjectID id.SubjectID, enabled bool, now time.Time) error
}

// TokenStore is the persistence contract for single-use tokens. Consumption
// is a single conditional update; losers get sentinel-wrapped errors.
type TokenStore interface {
	Issue(ctx context.Context, token *applicant.OnboardingToken) error
	FindByValue(ctx context.Context, value string) (*applicant.OnboardingToken, error)
	Consume(ctx context.Context, value string, purpose id.TokenPurpose, now time.Time) (*applicant.OnboardingToken, error)
}

// IdentityProvisioner runs the directory step.
type IdentityProvisioner interface {
	EnsureIdentity(ctx context.Context, subject *applicant.Subject, password string) (*directory.Identity, error)
}

// RecordMatcher runs the practice-management step.
type RecordMatcher interface {
	MatchSubject(ctx context.Context, subject *applicant.Subject) (*pms.Match, error)
}

// NotesProvisioner runs the encryption-key step.
type NotesProvisioner interface {
	EnableNotes(ctx context.Context, subject *applicant.Subject, now time.Time) (*applicant.NotesKeyRecord, error)
}

// Mailer sends the workflow's email.
type Mailer interface {
	SendTokenLink(ctx context.Context, subject *applicant.Subject, purpose id.TokenPurpose, link string, expiresAt time.Time) error
	SendWelcome(ctx context.Context, subject *applicant.Subject, notesEnabled bool) error
}

// Config carries the workflow's tunables.
type Config struct {
	// LinkBaseURL is the public portal origin tokenized links point at.
	LinkBaseURL string
	// TokenTTL bounds every issued token.
	TokenTTL time.Duration
}

// Service orchestrates the onboarding workflow.
type Service struct {
	subjects SubjectStore
	tokens   TokenStore
	identity IdentityProvisioner
	matcher  RecordMatcher
	notes    NotesProvisioner
	mailer   Mailer
	txRunner tx.Runner
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(
	subjects SubjectStore,
	tokens TokenStore,
	identity IdentityProvisioner,
	matcher RecordMatcher,
	notes NotesProvisioner,
	mailer Mailer,
	txRunner tx.Runner,
	cfg Config,
	opts ...Option,
) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	s := &Service{
		subjects: subjects,
		tokens:   tokens,
		identity: identity,
		matcher:  matcher,
		notes:    notes,
		mailer:   mailer,
		txRunner: txRunner,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) countToken(purpose id.TokenPurpose) {
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(string(purpose)).Inc()
	}
}

func (s *Service) countRejection() {
	if s.metrics != nil {
		s.metrics.TokensRejected.Inc()
	}
}

func (s *Service) countRun(outcome string) {
	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countStepFailure(step string) {
	if s.metrics != nil {
		s.metrics.StepFailures.WithLabelValues(step).Inc()
	}
}

func (s *Service) observeRunDuration(d time.Duration) {
	if s.metrics != nil {
		s.metrics.RunDuration.Observe(d.Seconds())
	}
}
