package service

import (
	"context"
	"errors"
	"time"

	applicant "meridian/internal/applicant/models"
	"meridian/internal/onboarding/metrics"
	"meridian/internal/onboarding/models"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
	"meridian/pkg/requestcontext"
	"meridian/pkg/secrets"
)

// CompleteOnboarding is the practitioner-facing saga. Order is fixed:
// password gate, atomic token consume + status flip, then the provisioning
// steps. Only the directory and practice-management steps are fatal; a
// subject who clears those is onboarded even if keys or email degrade.
func (s *Service) CompleteOnboarding(ctx context.Context, req models.CompleteRequest) (*models.ProvisioningResult, error) {
	// Local validation first: a weak password must cost zero external calls
	// and must not burn the token.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var subject *applicant.Subject
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		consumed, err := s.tokens.Consume(ctx, req.Token, id.PurposeOnboarding, now)
		if err != nil {
			s.countRejection()
			// Undifferentiated on purpose: the consuming path never tells
			// a guesser whether a value exists, expired, or was used.
			return dErrors.New(dErrors.CodeTokenInvalid, "that link is not valid")
		}
		subject, err = s.beginRun(ctx, consumed.SubjectID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.runProvisioning(ctx, subject, req.Password, now)
}

// Provision re-runs the saga for a stuck subject without a token. The
// subject-field ledger makes the re-run idempotent: completed steps are
// skipped, failed ones retried.
func (s *Service) Provision(ctx context.Context, subjectID id.SubjectID) (*models.ProvisioningResult, error) {
	now := requestcontext.Now(ctx)
	subject, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject.Status != id.StatusOnboarded {
		subject, err = s.beginRun(ctx, subjectID, now)
		if err != nil {
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "provisioning re-run requested",
		"subject_id", subjectID, "admin_id", requestcontext.AdminID(ctx))
	return s.runProvisioning(ctx, subject, "", now)
}

// beginRun moves the subject into onboarding_in_progress under the row
// lock, rejecting subjects who are not eligible to provision.
func (s *Service) beginRun(ctx context.Context, subjectID id.SubjectID, now time.Time) (*applicant.Subject, error) {
	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *applicant.Subject) error { return sub.CanBeginProvisioning() },
		func(sub *applicant.Subject) {
			if sub.Status == id.StatusOfferAccepted {
				sub.ApplyTransition(id.StatusOnboardingInProg, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, err
	}
	return subject, nil
}

// runProvisioning executes the saga steps against the subject-field ledger.
// Each step checks its ledger field first; completed work is never redone
// and no duplicate external resources are created.
func (s *Service) runProvisioning(ctx context.Context, subject *applicant.Subject, password string, now time.Time) (*models.ProvisioningResult, error) {
	started := time.Now()
	result := &models.ProvisioningResult{SubjectID: subject.ID}

	// Step: directory identity (fatal).
	if subject.IdentityProvisioned() {
		result.ReusedIdentity = true
		result.CorporateEmail = subject.CorporateEmail
		result.LicenseAssigned = subject.LicenseAssigned
	} else {
		if err := s.provisionIdentity(ctx, subject, password, now, result); err != nil {
			s.countStepFailure(metrics.StepDirectory)
			s.finishRun(ctx, result, metrics.OutcomeFailed, started)
			return nil, err
		}
	}

	// Step: practice-management match (fatal; not-found and outage are
	// distinct failures so operators know where the fix lives).
	if subject.PMSMatched() {
		result.PMSRecordID = subject.PMSRecordID
		result.SubRoleID = subject.PMSSubRoleID
		// Only the sub-role id survives a run; an empty one stays flagged
		// unresolved so admins keep seeing the reconciliation case.
		result.SubRoleResolved = subject.PMSSubRoleID != ""
	} else {
		match, err := s.matcher.MatchSubject(ctx, subject)
		if err != nil {
			s.countStepFailure(metrics.StepPMS)
			s.finishRun(ctx, result, metrics.OutcomeFailed, started)
			return nil, err
		}
		result.PMSRecordID = match.RecordID
		result.SubRoleID = match.SubRoleID
		result.SubRoleResolved = match.SubRoleResolved

		// The match and the flip to onboarded land as one conditional
		// update: no partial credit.
		updated, err := s.subjects.CompleteProvisioning(ctx, subject.ID, match.RecordID, match.SubRoleID, now)
		if err != nil {
			s.countStepFailure(metrics.StepPersist)
			s.finishRun(ctx, result, metrics.OutcomeFailed, started)
			if errors.Is(err, sentinel.ErrInvalidState) {
				return nil, dErrors.New(dErrors.CodeConflict, "subject state changed during provisioning")
			}
			return nil, err
		}
		subject = updated
	}

	// From here the subject is onboarded; remaining steps only enrich.

	// Step: notes encryption key (non-fatal).
	if subject.NotesEnabled {
		result.NotesEnabled = true
	} else if _, err := s.notes.EnableNotes(ctx, subject, now); err != nil {
		s.countStepFailure(metrics.StepNotesKey)
		s.logger.WarnContext(ctx, "notes key step failed, continuing without notes",
			"subject_id", subject.ID, "error", err)
	} else {
		result.NotesEnabled = true
		subject.ApplyNotesEnabled(true, now)
	}

	// Step: welcome email (non-fatal, always last).
	if err := s.mailer.SendWelcome(ctx, subject, result.NotesEnabled); err != nil {
		s.countStepFailure(metrics.StepEmail)
		s.logger.WarnContext(ctx, "welcome mail failed",
			"subject_id", subject.ID, "error", err)
	} else {
		result.EmailSent = true
	}

	outcome := metrics.OutcomeOnboarded
	if !result.NotesEnabled || !result.EmailSent {
		outcome = metrics.OutcomeDegraded
	}
	s.finishRun(ctx, result, outcome, started)
	return result, nil
}

// provisionIdentity runs the directory step and checkpoints its outcome
// immediately, so a later failure never repeats account creation.
func (s *Service) provisionIdentity(ctx context.Context, subject *applicant.Subject, password string, now time.Time, result *models.ProvisioningResult) error {
	// An admin re-run arrives without a password. The directory still needs
	// one to mint an account; issue a throwaway the practitioner resets
	// through the directory's own flow.
	passwordHash := ""
	if password == "" {
		generated, err := secrets.GenerateToken()
		if err != nil {
			return err
		}
		password = generated
	} else {
		hashed, err := secrets.HashPassword(password)
		if err != nil {
			return err
		}
		passwordHash = hashed
	}

	identity, err := s.identity.EnsureIdentity(ctx, subject, password)
	if err != nil {
		return err
	}
	if err := s.subjects.SaveIdentity(ctx, subject.ID, identity.DirectoryID, identity.CorporateEmail, identity.LicenseAssigned, passwordHash, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not record directory identity")
	}
	subject.ApplyIdentity(identity.DirectoryID, identity.CorporateEmail, identity.LicenseAssigned, now)
	if passwordHash != "" {
		subject.PortalPasswordHash = passwordHash
	}

	result.AccountCreated = identity.Created
	result.ReusedIdentity = !identity.Created
	result.CorporateEmail = identity.CorporateEmail
	result.LicenseAssigned = identity.LicenseAssigned
	return nil
}

// finishRun records metrics and the audit log line for a run.
func (s *Service) finishRun(ctx context.Context, result *models.ProvisioningResult, outcome string, started time.Time) {
	s.countRun(outcome)
	s.observeRunDuration(time.Since(started))
	s.logger.InfoContext(ctx, "provisioning run finished",
		"subject_id", result.SubjectID,
		"outcome", outcome,
		"account_created", result.AccountCreated,
		"reused_identity", result.ReusedIdentity,
		"corporate_email", result.CorporateEmail,
		"license_assigned", result.LicenseAssigned,
		"pms_record_id", result.PMSRecordID,
		"sub_role_id", result.SubRoleID,
		"sub_role_resolved", result.SubRoleResolved,
		"notes_enabled", result.NotesEnabled,
		"email_sent", result.EmailSent,
	)
}
