package models

import (
	"time"

	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

// OnboardingToken is a single-use, purpose-scoped, time-bounded credential.
//
// Validity invariant: a token is usable iff ConsumedAt is nil and now is
// before ExpiresAt. Consumption must happen in the same atomic store update
// as the state change it authorizes; the store owns that guarantee, this
// type owns the validation rules.
type OnboardingToken struct {
	ID         id.TokenID      `json:"id"`
	SubjectID  id.SubjectID    `json:"subject_id"`
	Purpose    id.TokenPurpose `json:"purpose"`
	Value      string          `json:"-"`
	IssuedAt   time.Time       `json:"issued_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	ConsumedAt *time.Time      `json:"consumed_at,omitempty"`
}

// NewOnboardingToken builds a token with the given opaque value and TTL.
func NewOnboardingToken(subjectID id.SubjectID, purpose id.TokenPurpose, value string, ttl time.Duration, now time.Time) (*OnboardingToken, error) {
	if value == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token value cannot be empty")
	}
	if !purpose.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token purpose is not supported")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token ttl must be positive")
	}
	return &OnboardingToken{
		ID:        id.NewTokenID(),
		SubjectID: subjectID,
		Purpose:   purpose,
		Value:     value,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsConsumed reports whether the token has already been used.
func (t *OnboardingToken) IsConsumed() bool { return t.ConsumedAt != nil }

// IsExpired reports whether the token's window has passed.
func (t *OnboardingToken) IsExpired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// ValidateForConsume checks purpose, consumption, and expiry. Memory stores
// call this under their lock; the postgres store expresses the same rules in
// the WHERE clause of its conditional update.
func (t *OnboardingToken) ValidateForConsume(purpose id.TokenPurpose, now time.Time) error {
	if t.Purpose != purpose {
		return dErrors.New(dErrors.CodeInvalidInput, "token purpose mismatch")
	}
	if t.IsConsumed() {
		return dErrors.New(dErrors.CodeConflict, "token already used")
	}
	if t.IsExpired(now) {
		return dErrors.New(dErrors.CodeConflict, "token expired")
	}
	return nil
}

// MarkConsumed burns the token. Call ValidateForConsume first.
func (t *OnboardingToken) MarkConsumed(now time.Time) {
	t.ConsumedAt = &now
}
