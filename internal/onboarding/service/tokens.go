package service

import (
	"context"
	"errors"
	"fmt"

	applicant "meridian/internal/applicant/models"
	"meridian/internal/onboarding/models"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
	"meridian/pkg/requestcontext"
	"meridian/pkg/secrets"
)

// CreateSubject registers a new applicant in the applied state.
func (s *Service) CreateSubject(ctx context.Context, req models.CreateSubjectRequest) (*applicant.Subject, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	subject, err := applicant.NewSubject(id.NewSubjectID(), req.FirstName, req.LastName, req.PersonalEmail, req.Phone, now)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a subject with that personal email already exists")
		}
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.logger.InfoContext(ctx, "subject created",
		"subject_id", subject.ID, "admin_id", requestcontext.AdminID(ctx))
	return subject, nil
}

// GetSubject fetches one subject.
func (s *Service) GetSubject(ctx context.Context, subjectID id.SubjectID) (*applicant.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return subject, nil
}

// Transition performs an admin-driven lifecycle move.
func (s *Service) Transition(ctx context.Context, subjectID id.SubjectID, next id.SubjectStatus) (*applicant.Subject, error) {
	now := requestcontext.Now(ctx)
	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *applicant.Subject) error { return sub.CanTransition(next) },
		func(sub *applicant.Subject) { sub.ApplyTransition(next, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "subject transitioned",
		"subject_id", subjectID, "status", next, "admin_id", requestcontext.AdminID(ctx))
	return subject, nil
}

// SendOffer moves the subject to offer_sent and mails an offer-acceptance
// link. Re-sending while still at offer_sent re-issues the token, which
// invalidates the previous link.
func (s *Service) SendOffer(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error) {
	now := requestcontext.Now(ctx)
	subject, err := s.subjects.Execute(ctx, subjectID,
		func(sub *applicant.Subject) error { return sub.CanTransition(id.StatusOfferSent) },
		func(sub *applicant.Subject) { sub.ApplyTransition(id.StatusOfferSent, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, err
	}
	return s.issueAndMail(ctx, subject, id.PurposeOfferAcceptance)
}

// AcceptOffer consumes the offer-acceptance token for a subject, moves them
// to offer_accepted, and mails the onboarding link. The consume and the
// status flip share one transaction.
func (s *Service) AcceptOffer(ctx context.Context, subjectID id.SubjectID, tokenValue string) (*models.IssuedToken, error) {
	now := requestcontext.Now(ctx)

	var subject *applicant.Subject
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		consumed, err := s.tokens.Consume(ctx, tokenValue, id.PurposeOfferAcceptance, now)
		if err != nil {
			s.countRejection()
			return dErrors.New(dErrors.CodeTokenInvalid, "that link is not valid")
		}
		if consumed.SubjectID != subjectID {
			s.countRejection()
			return dErrors.New(dErrors.CodeTokenInvalid, "that link is not valid")
		}
		subject, err = s.subjects.Execute(ctx, subjectID,
			func(sub *applicant.Subject) error { return sub.CanTransition(id.StatusOfferAccepted) },
			func(sub *applicant.Subject) { sub.ApplyTransition(id.StatusOfferAccepted, now) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.issueAndMail(ctx, subject, id.PurposeOnboarding)
}

// ResendOnboardingLink re-issues the onboarding token for a subject whose
// run has not finished, invalidating the prior link.
func (s *Service) ResendOnboardingLink(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error) {
	subject, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := subject.CanBeginProvisioning(); err != nil {
		return nil, err
	}
	return s.issueAndMail(ctx, subject, id.PurposeOnboarding)
}

// IssueInterviewLink issues an interview-scheduling token. The subject must
// sit at interview_scheduled.
func (s *Service) IssueInterviewLink(ctx context.Context, subjectID id.SubjectID) (*models.IssuedToken, error) {
	subject, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject.Status != id.StatusInterviewScheduled {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"subject in status %s cannot receive an interview link", subject.Status)
	}
	return s.issueAndMail(ctx, subject, id.PurposeInterviewSched)
}

// PeekToken answers what a tokenized link points at without consuming it.
// This is the one differentiated view the link owner gets; the consuming
// path answers only valid or not.
func (s *Service) PeekToken(ctx context.Context, value string) (*models.TokenPreview, error) {
	token, err := s.tokens.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countRejection()
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown link")
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	subject, err := s.subjects.FindByID(ctx, token.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("find token subject: %w", err)
	}

	now := requestcontext.Now(ctx)
	state := models.TokenStateValid
	switch {
	case token.IsConsumed():
		state = models.TokenStateCompleted
	case token.IsExpired(now):
		state = models.TokenStateExpired
	}
	return &models.TokenPreview{
		State:     state,
		SubjectID: subject.ID,
		FirstName: subject.FirstName,
		LastName:  subject.LastName,
		Purpose:   token.Purpose,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// issueAndMail mints a fresh token (overwriting any prior one of the same
// purpose) and mails the link. The opaque value appears in the return once
// and is never readable again.
func (s *Service) issueAndMail(ctx context.Context, subject *applicant.Subject, purpose id.TokenPurpose) (*models.IssuedToken, error) {
	now := requestcontext.Now(ctx)
	value, err := secrets.GenerateToken()
	if err != nil {
		return nil, err
	}
	token, err := applicant.NewOnboardingToken(subject.ID, purpose, value, s.cfg.TokenTTL, now)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Issue(ctx, token); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.countToken(purpose)

	link := s.linkFor(purpose, value)
	if err := s.mailer.SendTokenLink(ctx, subject, purpose, link, token.ExpiresAt); err != nil {
		// The token stands; an admin can resend without reissuing.
		s.logger.WarnContext(ctx, "token link mail failed",
			"subject_id", subject.ID, "purpose", purpose, "error", err)
	}

	s.logger.InfoContext(ctx, "token issued",
		"subject_id", subject.ID, "purpose", purpose, "expires_at", token.ExpiresAt)
	return &models.IssuedToken{
		SubjectID: subject.ID,
		Purpose:   purpose,
		Value:     value,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *Service) linkFor(purpose id.TokenPurpose, value string) string {
	switch purpose {
	case id.PurposeInterviewSched:
		return fmt.Sprintf("%s/interview/%s", s.cfg.LinkBaseURL, value)
	case id.PurposeOfferAcceptance:
		return fmt.Sprintf("%s/offer/%s", s.cfg.LinkBaseURL, value)
	default:
		return fmt.Sprintf("%s/onboarding/%s", s.cfg.LinkBaseURL, value)
	}
}
