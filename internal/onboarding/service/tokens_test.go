package service

import (
	"context"
	"time"

	"meridian/internal/onboarding/models"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/requestcontext"
)

func requestcontextWith(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *SagaSuite) TestCreateSubjectRejectsDuplicateEmail() {
	_, err := s.svc.CreateSubject(s.ctx(), models.CreateSubjectRequest{
		FirstName: "Ana", LastName: "Lee", PersonalEmail: "ana@personal.test",
	})
	s.Require().NoError(err)

	_, err = s.svc.CreateSubject(s.ctx(), models.CreateSubjectRequest{
		FirstName: "Another", LastName: "Ana", PersonalEmail: "ana@personal.test",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *SagaSuite) TestOfferFlowEndToEnd() {
	subject, err := s.svc.CreateSubject(s.ctx(), models.CreateSubjectRequest{
		FirstName: "Ana", LastName: "Lee", PersonalEmail: "ana@personal.test",
	})
	s.Require().NoError(err)

	for _, next := range []id.SubjectStatus{id.StatusReviewed, id.StatusInterviewScheduled, id.StatusAccepted} {
		_, err = s.svc.Transition(s.ctx(), subject.ID, next)
		s.Require().NoError(err)
	}

	offer, err := s.svc.SendOffer(s.ctx(), subject.ID)
	s.Require().NoError(err)
	s.Equal(id.PurposeOfferAcceptance, offer.Purpose)
	s.NotEmpty(offer.Value)

	onboarding, err := s.svc.AcceptOffer(s.ctx(), subject.ID, offer.Value)
	s.Require().NoError(err)
	s.Equal(id.PurposeOnboarding, onboarding.Purpose)

	updated, err := s.svc.GetSubject(s.ctx(), subject.ID)
	s.Require().NoError(err)
	s.Equal(id.StatusOfferAccepted, updated.Status)

	// The offer token burned on acceptance.
	_, err = s.svc.AcceptOffer(s.ctx(), subject.ID, offer.Value)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTokenInvalid))
}

func (s *SagaSuite) TestResendOverwritesPriorLink() {
	subject := s.seedAccepted(true)

	reissued, err := s.svc.ResendOnboardingLink(s.ctx(), subject.ID)
	s.Require().NoError(err)
	s.NotEqual(testTokenValue, reissued.Value)

	// The original link is gone.
	_, err = s.complete()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTokenInvalid))

	// The fresh one works.
	result, err := s.svc.CompleteOnboarding(s.ctx(), models.CompleteRequest{
		Token:    reissued.Value,
		Password: testPassword,
	})
	s.Require().NoError(err)
	s.Equal("pms-77", result.PMSRecordID)
}

func (s *SagaSuite) TestPeekStates() {
	subject := s.seedAccepted(true)

	s.Run("valid", func() {
		preview, err := s.svc.PeekToken(s.ctx(), testTokenValue)
		s.Require().NoError(err)
		s.Equal(models.TokenStateValid, preview.State)
		s.Equal("Ana", preview.FirstName)
		s.Equal(subject.ID, preview.SubjectID)
	})

	s.Run("peek does not consume", func() {
		for range 3 {
			_, err := s.svc.PeekToken(s.ctx(), testTokenValue)
			s.Require().NoError(err)
		}
		token, err := s.tokens.FindByValue(context.Background(), testTokenValue)
		s.Require().NoError(err)
		s.False(token.IsConsumed())
	})

	s.Run("unknown", func() {
		_, err := s.svc.PeekToken(s.ctx(), "never-issued")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("already completed", func() {
		_, err := s.complete()
		s.Require().NoError(err)

		preview, err := s.svc.PeekToken(s.ctx(), testTokenValue)
		s.Require().NoError(err)
		s.Equal(models.TokenStateCompleted, preview.State)
	})

	s.Run("expired", func() {
		expired := requestcontextWith(s.now.Add(200 * time.Hour))
		preview, err := s.svc.PeekToken(expired, testTokenValue)
		s.Require().NoError(err)
		// Consumption wins over expiry in the preview.
		s.Equal(models.TokenStateCompleted, preview.State)
	})
}

func (s *SagaSuite) TestInterviewLinkRequiresScheduledStatus() {
	subject := s.seedAccepted(true)

	_, err := s.svc.IssueInterviewLink(s.ctx(), subject.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
