package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

func newTestSubject(t *testing.T, status id.SubjectStatus) *Subject {
	t.Helper()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	subject, err := NewSubject(id.NewSubjectID(), "Ana", "Lee", "a@x.com", "555-0101", now)
	require.NoError(t, err)
	subject.Status = status
	return subject
}

func TestNewSubject_Invariants(t *testing.T) {
	now := time.Now()

	t.Run("normalizes input", func(t *testing.T) {
		subject, err := NewSubject(id.NewSubjectID(), "  Ana ", " Lee ", " A@X.Com ", " 555 ", now)
		require.NoError(t, err)
		assert.Equal(t, "Ana", subject.FirstName)
		assert.Equal(t, "a@x.com", subject.PersonalEmail)
		assert.Equal(t, id.StatusApplied, subject.Status)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewSubject(id.NewSubjectID(), "", "Lee", "a@x.com", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewSubject(id.NewSubjectID(), "Ana", "Lee", "nope", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestLifecycleTransitions(t *testing.T) {
	t.Run("waitlisted subject can be accepted later", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusWaitlisted)
		require.NoError(t, subject.CanTransition(id.StatusAccepted))
	})

	t.Run("denied is terminal", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusDenied)
		err := subject.CanTransition(id.StatusAccepted)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("offer cannot be sent before acceptance", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusInterviewScheduled)
		err := subject.CanTransition(id.StatusOfferSent)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestCanBeginProvisioning(t *testing.T) {
	t.Run("allowed from offer_accepted", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusOfferAccepted)
		assert.NoError(t, subject.CanBeginProvisioning())
	})

	t.Run("allowed mid-onboarding for re-runs", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusOnboardingInProg)
		assert.NoError(t, subject.CanBeginProvisioning())
	})

	t.Run("rejected once onboarded", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusOnboarded)
		err := subject.CanBeginProvisioning()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("rejected before offer acceptance", func(t *testing.T) {
		subject := newTestSubject(t, id.StatusOfferSent)
		err := subject.CanBeginProvisioning()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestProvisioningLedgerFields(t *testing.T) {
	now := time.Now()
	subject := newTestSubject(t, id.StatusOfferAccepted)

	assert.False(t, subject.IdentityProvisioned())
	assert.False(t, subject.PMSMatched())

	subject.ApplyIdentity("dir-123", "ana.lee@meridianclinic.com", true, now)
	subject.ApplyPMSMatch("pms-9", "role-2", now)

	assert.True(t, subject.IdentityProvisioned())
	assert.True(t, subject.PMSMatched())
	assert.Equal(t, "ana.lee@meridianclinic.com", subject.CorporateEmail)

	subject.ApplyOnboarded(now)
	assert.Equal(t, id.StatusOnboarded, subject.Status)
	assert.True(t, subject.Status.IsTerminal())
}
