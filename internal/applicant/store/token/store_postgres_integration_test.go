//go:build integration

package token_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"meridian/internal/applicant/models"
	subjectstore "meridian/internal/applicant/store/subject"
	"meridian/internal/applicant/store/token"
	id "meridian/pkg/domain"
	"meridian/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *token.PostgresStore
	subjects *subjectstore.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = token.NewPostgres(s.postgres.DB)
	s.subjects = subjectstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) createSubject() *models.Subject {
	subject, err := models.NewSubject(id.NewSubjectID(), "Ana", "Lee",
		id.NewSubjectID().String()+"@personal.test", "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.subjects.Create(context.Background(), subject))
	return subject
}

func (s *PostgresStoreSuite) issue(subjectID id.SubjectID, value string) *models.OnboardingToken {
	tok, err := models.NewOnboardingToken(subjectID, id.PurposeOnboarding, value, 48*time.Hour, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Issue(context.Background(), tok))
	return tok
}

func (s *PostgresStoreSuite) TestIssueOverwritesSamePurpose() {
	ctx := context.Background()
	subject := s.createSubject()

	s.issue(subject.ID, "first-value")
	s.issue(subject.ID, "second-value")

	_, err := s.store.FindByValue(ctx, "first-value")
	s.Require().Error(err, "prior link invalidated by reissue")

	found, err := s.store.FindByValue(ctx, "second-value")
	s.Require().NoError(err)
	s.Equal(subject.ID, found.SubjectID)
	s.False(found.IsConsumed())
}

func (s *PostgresStoreSuite) TestReissueAfterConsumeResetsConsumption() {
	ctx := context.Background()
	subject := s.createSubject()

	s.issue(subject.ID, "first-value")
	_, err := s.store.Consume(ctx, "first-value", id.PurposeOnboarding, s.now.Add(time.Hour))
	s.Require().NoError(err)

	s.issue(subject.ID, "fresh-value")
	consumed, err := s.store.Consume(ctx, "fresh-value", id.PurposeOnboarding, s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.NotNil(consumed.ConsumedAt)
}

func (s *PostgresStoreSuite) TestConsumeRejectsExpiredAndUsed() {
	ctx := context.Background()
	subject := s.createSubject()
	s.issue(subject.ID, "the-value")

	_, err := s.store.Consume(ctx, "the-value", id.PurposeOnboarding, s.now.Add(72*time.Hour))
	s.Require().Error(err, "expired token must not consume")

	_, err = s.store.Consume(ctx, "the-value", id.PurposeOnboarding, s.now.Add(time.Hour))
	s.Require().NoError(err)

	_, err = s.store.Consume(ctx, "the-value", id.PurposeOnboarding, s.now.Add(time.Hour))
	s.Require().Error(err, "second consume must lose")
}

// The conditional UPDATE is the single point of truth: under concurrency
// exactly one caller may win.
func (s *PostgresStoreSuite) TestExactlyOneConcurrentConsumerWins() {
	ctx := context.Background()
	subject := s.createSubject()
	s.issue(subject.ID, "contested")

	const goroutines = 32
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Consume(ctx, "contested", id.PurposeOnboarding, s.now.Add(time.Hour)); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}
