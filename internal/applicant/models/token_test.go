package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

func TestNewOnboardingToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	subjectID := id.NewSubjectID()

	t.Run("valid token", func(t *testing.T) {
		token, err := NewOnboardingToken(subjectID, id.PurposeOnboarding, "abc123", 48*time.Hour, now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(48*time.Hour), token.ExpiresAt)
		assert.Nil(t, token.ConsumedAt)
	})

	t.Run("rejects empty value", func(t *testing.T) {
		_, err := NewOnboardingToken(subjectID, id.PurposeOnboarding, "", time.Hour, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects unknown purpose", func(t *testing.T) {
		_, err := NewOnboardingToken(subjectID, id.TokenPurpose("password_reset"), "abc", time.Hour, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewOnboardingToken(subjectID, id.PurposeOnboarding, "abc", 0, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestValidateForConsume(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	newToken := func() *OnboardingToken {
		token, err := NewOnboardingToken(id.NewSubjectID(), id.PurposeOnboarding, "abc123", 48*time.Hour, now)
		require.NoError(t, err)
		return token
	}

	t.Run("fresh token passes", func(t *testing.T) {
		assert.NoError(t, newToken().ValidateForConsume(id.PurposeOnboarding, now.Add(time.Hour)))
	})

	t.Run("purpose mismatch", func(t *testing.T) {
		err := newToken().ValidateForConsume(id.PurposeOfferAcceptance, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("already consumed", func(t *testing.T) {
		token := newToken()
		token.MarkConsumed(now)
		err := token.ValidateForConsume(id.PurposeOnboarding, now.Add(time.Minute))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("expired at the boundary", func(t *testing.T) {
		token := newToken()
		err := token.ValidateForConsume(id.PurposeOnboarding, token.ExpiresAt)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("valid one instant before expiry", func(t *testing.T) {
		token := newToken()
		assert.NoError(t, token.ValidateForConsume(id.PurposeOnboarding, token.ExpiresAt.Add(-time.Nanosecond)))
	})
}
