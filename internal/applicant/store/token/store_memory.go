// Package token persists single-use onboarding tokens.
//
// Error contract (all stores in this package):
//   - sentinel.ErrNotFound when no row matches
//   - sentinel.ErrExpired / sentinel.ErrAlreadyUsed / sentinel.ErrInvalidState
//     (wrapped) when a consume attempt fails validation
//   - wrapped infrastructure errors otherwise
//
// Services translate these into the single undifferentiated token_invalid
// domain error at the consuming boundary.
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
	"meridian/pkg/platform/sentinel"
)

// translateConsumeError converts domain validation errors into the sentinel
// vocabulary stores speak.
func translateConsumeError(err error) error {
	switch {
	case err == nil:
		return nil
	case dErrors.HasCode(err, dErrors.CodeConflict):
		// Either already used or expired; keep the detail in the message.
		return fmt.Errorf("%s: %w", err.Error(), sentinel.ErrAlreadyUsed)
	default:
		return fmt.Errorf("%s: %w", err.Error(), sentinel.ErrInvalidState)
	}
}

// InMemoryStore keeps tokens in process memory for tests and development.
type InMemoryStore struct {
	mu sync.Mutex
	// byOwner keys on subject+purpose: issuing overwrites the prior token of
	// the same purpose, which is what invalidates old links.
	byOwner map[ownerKey]*models.OnboardingToken
	byValue map[string]*models.OnboardingToken
}

type ownerKey struct {
	subject id.SubjectID
	purpose id.TokenPurpose
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byOwner: make(map[ownerKey]*models.OnboardingToken),
		byValue: make(map[string]*models.OnboardingToken),
	}
}

// Issue stores a token, replacing any prior token of the same purpose for
// the subject. The replaced token's value stops matching anything, so it is
// dead even though never flagged consumed.
func (s *InMemoryStore) Issue(_ context.Context, token *models.OnboardingToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey{subject: token.SubjectID, purpose: token.Purpose}
	if prior, ok := s.byOwner[key]; ok {
		delete(s.byValue, prior.Value)
	}
	cp := *token
	s.byOwner[key] = &cp
	s.byValue[cp.Value] = &cp
	return nil
}

// FindByValue is the non-consuming peek used by the read-only check
// endpoint. It never mutates the token.
func (s *InMemoryStore) FindByValue(_ context.Context, value string) (*models.OnboardingToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byValue[value]
	if !ok {
		return nil, fmt.Errorf("token not found: %w", sentinel.ErrNotFound)
	}
	cp := *token
	return &cp, nil
}

// Consume atomically validates and burns a token under the store lock, the
// in-memory equivalent of the conditional UPDATE in the postgres store.
// Exactly one of N concurrent callers for the same value succeeds.
func (s *InMemoryStore) Consume(_ context.Context, value string, purpose id.TokenPurpose, now time.Time) (*models.OnboardingToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byValue[value]
	if !ok {
		return nil, fmt.Errorf("token not found: %w", sentinel.ErrNotFound)
	}
	if err := token.ValidateForConsume(purpose, now); err != nil {
		return nil, translateConsumeError(err)
	}
	token.MarkConsumed(now)
	cp := *token
	return &cp, nil
}
