package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"meridian/internal/applicant/models"
	"meridian/internal/platform/config"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject(t *testing.T, first, last string) *models.Subject {
	t.Helper()
	s, err := models.NewSubject(id.NewSubjectID(), first, last, first+"@personal.test", "", time.Now())
	require.NoError(t, err)
	return s
}

func testCfg() config.Directory {
	return config.Directory{MailDomain: "meridianclinic.com"}
}

func TestDeriveCorporateAddress(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		last     string
		expected string
	}{
		{"plain", "Ana", "Lee", "ana.lee@meridianclinic.com"},
		{"apostrophe and hyphen stripped", "Mary-Jane", "O'Brien", "maryjane.obrien@meridianclinic.com"},
		{"digits stripped", "Ana2", "Lee3", "ana.lee@meridianclinic.com"},
		{"accented letters kept", "José", "Núñez", "josé.núñez@meridianclinic.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveCorporateAddress(tt.first, tt.last, "meridianclinic.com"))
		})
	}
}

func TestEnsureIdentity_CreatesWhenAbsent(t *testing.T) {
	mock := NewMock()
	p := NewProvisioner(mock, testCfg())

	identity, err := p.EnsureIdentity(context.Background(), testSubject(t, "Ana", "Lee"), "Str0ngPass!")
	require.NoError(t, err)

	assert.True(t, identity.Created)
	assert.Equal(t, "ana.lee@meridianclinic.com", identity.CorporateEmail)
	assert.NotEmpty(t, identity.DirectoryID)
	assert.Equal(t, 1, mock.CreateCalls)
}

func TestEnsureIdentity_AdoptsExistingAccount(t *testing.T) {
	mock := NewMock()
	mock.Seed(Account{ID: "dir-123", Address: "ana.lee@meridianclinic.com", LicenseAssigned: true})
	p := NewProvisioner(mock, testCfg())

	identity, err := p.EnsureIdentity(context.Background(), testSubject(t, "Ana", "Lee"), "Str0ngPass!")
	require.NoError(t, err)

	assert.False(t, identity.Created)
	assert.Equal(t, "dir-123", identity.DirectoryID)
	assert.True(t, identity.LicenseAssigned)
	assert.Zero(t, mock.CreateCalls, "no create call when an account already exists")
}

func TestEnsureIdentity_LookupFailureIsDirectoryFailed(t *testing.T) {
	mock := NewMock()
	mock.FindErr = errors.New("upstream 500")
	p := NewProvisioner(mock, testCfg())

	_, err := p.EnsureIdentity(context.Background(), testSubject(t, "Ana", "Lee"), "Str0ngPass!")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDirectoryFailed))
	assert.Zero(t, mock.CreateCalls, "never create blind when the lookup itself failed")
}

func TestEnsureIdentity_CreateFailureIsDirectoryFailed(t *testing.T) {
	mock := NewMock()
	mock.CreateErr = errors.New("quota exceeded")
	p := NewProvisioner(mock, testCfg())

	_, err := p.EnsureIdentity(context.Background(), testSubject(t, "Ana", "Lee"), "Str0ngPass!")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDirectoryFailed))
}
