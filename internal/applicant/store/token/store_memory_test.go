package token

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	"meridian/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) issue(subjectID id.SubjectID, purpose id.TokenPurpose, value string) *models.OnboardingToken {
	token, err := models.NewOnboardingToken(subjectID, purpose, value, 48*time.Hour, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Issue(context.Background(), token))
	return token
}

func (s *MemoryStoreSuite) TestPeekDoesNotConsume() {
	s.issue(id.NewSubjectID(), id.PurposeOnboarding, "abc123")

	for range 3 {
		found, err := s.store.FindByValue(context.Background(), "abc123")
		s.Require().NoError(err)
		s.False(found.IsConsumed(), "peek must never burn the link")
	}

	_, err := s.store.Consume(context.Background(), "abc123", id.PurposeOnboarding, s.now.Add(time.Hour))
	s.Require().NoError(err)
}

func (s *MemoryStoreSuite) TestConsumeRejections() {
	ctx := context.Background()

	s.Run("unknown value", func() {
		_, err := s.store.Consume(ctx, "never-issued", id.PurposeOnboarding, s.now)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("wrong purpose", func() {
		s.issue(id.NewSubjectID(), id.PurposeOfferAcceptance, "offer-tok")
		_, err := s.store.Consume(ctx, "offer-tok", id.PurposeOnboarding, s.now)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("second consume fails", func() {
		s.issue(id.NewSubjectID(), id.PurposeOnboarding, "once-only")
		_, err := s.store.Consume(ctx, "once-only", id.PurposeOnboarding, s.now)
		s.Require().NoError(err)
		_, err = s.store.Consume(ctx, "once-only", id.PurposeOnboarding, s.now)
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("expired", func() {
		s.issue(id.NewSubjectID(), id.PurposeOnboarding, "stale")
		_, err := s.store.Consume(ctx, "stale", id.PurposeOnboarding, s.now.Add(72*time.Hour))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})
}

func (s *MemoryStoreSuite) TestReissueInvalidatesPriorToken() {
	subjectID := id.NewSubjectID()
	s.issue(subjectID, id.PurposeOnboarding, "first-link")
	s.issue(subjectID, id.PurposeOnboarding, "second-link")

	_, err := s.store.FindByValue(context.Background(), "first-link")
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "overwritten value must stop matching")

	token, err := s.store.Consume(context.Background(), "second-link", id.PurposeOnboarding, s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(subjectID, token.SubjectID)
}

func (s *MemoryStoreSuite) TestDifferentPurposesCoexist() {
	subjectID := id.NewSubjectID()
	s.issue(subjectID, id.PurposeOfferAcceptance, "offer-link")
	s.issue(subjectID, id.PurposeOnboarding, "onboarding-link")

	_, err := s.store.FindByValue(context.Background(), "offer-link")
	s.Require().NoError(err, "issuing a different purpose must not overwrite")
}

func (s *MemoryStoreSuite) TestExactlyOneConcurrentConsumerWins() {
	s.issue(id.NewSubjectID(), id.PurposeOnboarding, "contested")

	const attempts = 32
	var (
		wg   sync.WaitGroup
		wins int64
		mu   sync.Mutex
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Consume(context.Background(), "contested", id.PurposeOnboarding, s.now.Add(time.Hour))
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(1), wins, "exactly one of %d concurrent consumers may win", attempts)
}
