package mail

import (
	"context"
	"testing"
	"time"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mailSubject(t *testing.T) *models.Subject {
	t.Helper()
	s, err := models.NewSubject(id.NewSubjectID(), "Ana", "Lee", "ana@personal.test", "", time.Now())
	require.NoError(t, err)
	s.ApplyIdentity("dir-1", "ana.lee@meridianclinic.com", true, time.Now())
	return s
}

func testMailCfg() MailConfig {
	return MailConfig{
		FromAddress: "welcome@meridianclinic.com",
		OpsAddress:  "provisioning-alerts@meridianclinic.com",
	}
}

func TestSendTokenLink_Onboarding(t *testing.T) {
	sender := NewMockSender()
	d := NewDispatcher(sender, testMailCfg())

	err := d.SendTokenLink(context.Background(), mailSubject(t), id.PurposeOnboarding,
		"https://portal.meridianclinic.com/onboarding/abc123", time.Now().Add(72*time.Hour))
	require.NoError(t, err)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@personal.test", sent[0].To)
	assert.Contains(t, sent[0].Body, "https://portal.meridianclinic.com/onboarding/abc123")
	assert.Contains(t, sent[0].Body, "used once")
}

func TestSendTokenLink_UnknownPurpose(t *testing.T) {
	sender := NewMockSender()
	d := NewDispatcher(sender, testMailCfg())

	err := d.SendTokenLink(context.Background(), mailSubject(t), id.TokenPurpose("bogus"),
		"https://example.test", time.Now())
	require.Error(t, err)
	assert.Empty(t, sender.Sent())
}

func TestSendWelcome_FansOutBothCopies(t *testing.T) {
	sender := NewMockSender()
	d := NewDispatcher(sender, testMailCfg())

	require.NoError(t, d.SendWelcome(context.Background(), mailSubject(t), true))

	sent := sender.Sent()
	require.Len(t, sent, 2)
	recipients := []string{sent[0].To, sent[1].To}
	assert.Contains(t, recipients, "ana@personal.test")
	assert.Contains(t, recipients, "provisioning-alerts@meridianclinic.com")
}

func TestSendWelcome_PartialDeliveryStillErrors(t *testing.T) {
	sender := NewMockSender()
	sender.FailTo = "provisioning-alerts@meridianclinic.com"
	d := NewDispatcher(sender, testMailCfg())

	err := d.SendWelcome(context.Background(), mailSubject(t), false)
	require.Error(t, err)

	sent := sender.Sent()
	require.Len(t, sent, 1, "the practitioner copy still went out")
	assert.Equal(t, "ana@personal.test", sent[0].To)
}
