package directory

import (
	"context"
	"errors"
	"log/slog"

	"meridian/internal/applicant/models"
	"meridian/internal/platform/config"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
)

// Identity is the outcome of the directory step.
type Identity struct {
	DirectoryID     string
	CorporateEmail  string
	LicenseAssigned bool
	// Created is false when an existing account was adopted instead of a
	// new one being minted.
	Created bool
}

// Provisioner owns the lookup-before-create discipline: a directory account
// is created only after a lookup at the derived address comes back empty.
// Re-running the step against an already-provisioned address adopts the
// existing account rather than failing or duplicating.
type Provisioner struct {
	client     Client
	mailDomain string
	logger     *slog.Logger
}

type ProvisionerOption func(*Provisioner)

func WithLogger(logger *slog.Logger) ProvisionerOption {
	return func(p *Provisioner) { p.logger = logger }
}

func NewProvisioner(client Client, cfg config.Directory, opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		client:     client,
		mailDomain: cfg.MailDomain,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EnsureIdentity provisions (or adopts) the directory account for a subject.
// Every failure comes back as CodeDirectoryFailed; callers treat that as
// fatal for the onboarding run.
func (p *Provisioner) EnsureIdentity(ctx context.Context, subject *models.Subject, password string) (*Identity, error) {
	address := DeriveCorporateAddress(subject.FirstName, subject.LastName, p.mailDomain)

	existing, err := p.client.FindByAddress(ctx, address)
	switch {
	case err == nil:
		p.logger.InfoContext(ctx, "adopting existing directory account",
			"subject_id", subject.ID, "address", address, "directory_id", existing.ID)
		return &Identity{
			DirectoryID:     existing.ID,
			CorporateEmail:  existing.Address,
			LicenseAssigned: existing.LicenseAssigned,
			Created:         false,
		}, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to create
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeDirectoryFailed, "directory lookup failed")
	}

	account, err := p.client.CreateAccount(ctx, CreateAccountRequest{
		Address:       address,
		PersonalEmail: subject.PersonalEmail,
		FirstName:     subject.FirstName,
		LastName:      subject.LastName,
		DisplayName:   subject.DisplayName(),
		Password:      password,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDirectoryFailed, "directory account creation failed")
	}

	p.logger.InfoContext(ctx, "directory account created",
		"subject_id", subject.ID, "address", account.Address, "directory_id", account.ID)
	return &Identity{
		DirectoryID:     account.ID,
		CorporateEmail:  account.Address,
		LicenseAssigned: account.LicenseAssigned,
		Created:         true,
	}, nil
}
