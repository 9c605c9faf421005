package pms

import (
	"context"
	"errors"
	"testing"
	"time"

	"meridian/internal/applicant/models"
	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchedSubject(t *testing.T) *models.Subject {
	t.Helper()
	s, err := models.NewSubject(id.NewSubjectID(), "Ana", "Lee", "ana@personal.test", "", time.Now())
	require.NoError(t, err)
	s.ApplyIdentity("dir-1", "ana.lee@meridianclinic.com", true, time.Now())
	return s
}

func TestMatchSubject_ByPersonalEmail(t *testing.T) {
	mock := NewMock()
	mock.Seed(Record{ID: "pms-1", Email: "ana@personal.test", FirstName: "Ana", LastName: "Lee", Role: "physician"})

	match, err := NewMatcher(mock).MatchSubject(context.Background(), matchedSubject(t))
	require.NoError(t, err)

	assert.Equal(t, "pms-1", match.RecordID)
	assert.Equal(t, 1, mock.FindByEmailCalls)
	assert.Zero(t, mock.FindByNameCalls, "no name fallback when email matches")
}

func TestMatchSubject_EmailMatchSurvivesNameSpelling(t *testing.T) {
	// The practice manager entered the full first name; the application
	// used the short form. The email key still finds the record.
	mock := NewMock()
	mock.Seed(Record{ID: "pms-1", Email: "ana@personal.test", FirstName: "Anastasia", LastName: "Lee", Role: "physician"})

	match, err := NewMatcher(mock).MatchSubject(context.Background(), matchedSubject(t))
	require.NoError(t, err)

	assert.Equal(t, "pms-1", match.RecordID)
	assert.Zero(t, mock.FindByNameCalls)
}

func TestMatchSubject_NameFallback(t *testing.T) {
	mock := NewMock()
	mock.Seed(Record{ID: "pms-2", Email: "a.lee@oldsystem.test", FirstName: "Ana", LastName: "Lee", Role: "physician"})

	match, err := NewMatcher(mock).MatchSubject(context.Background(), matchedSubject(t))
	require.NoError(t, err)

	assert.Equal(t, "pms-2", match.RecordID)
	assert.Equal(t, 1, mock.FindByNameCalls)
}

func TestMatchSubject_NotFoundIsFatal(t *testing.T) {
	match, err := NewMatcher(NewMock()).MatchSubject(context.Background(), matchedSubject(t))
	require.Error(t, err)

	assert.Nil(t, match)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePMSNotFound))
}

func TestMatchSubject_OutageIsRetryable(t *testing.T) {
	mock := NewMock()
	mock.FindErr = errors.New("connection refused")

	_, err := NewMatcher(mock).MatchSubject(context.Background(), matchedSubject(t))
	require.Error(t, err)

	assert.True(t, dErrors.HasCode(err, dErrors.CodePMSUnavailable))
	assert.False(t, dErrors.HasCode(err, dErrors.CodePMSNotFound))
}

func TestResolveSubRole(t *testing.T) {
	tests := []struct {
		name         string
		subRoles     []SubRole
		subRolesErr  error
		wantID       string
		wantResolved bool
	}{
		{"none", nil, nil, "", true},
		{"single", []SubRole{{ID: "sr-1", Name: "attending"}}, nil, "sr-1", true},
		{"role name match", []SubRole{{ID: "sr-1", Name: "attending"}, {ID: "sr-2", Name: "Physician"}}, nil, "sr-2", true},
		{"ambiguous", []SubRole{{ID: "sr-1", Name: "attending"}, {ID: "sr-2", Name: "resident"}}, nil, "", true},
		{"lookup failure never fails the match", nil, errors.New("timeout"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMock()
			record := Record{ID: "pms-1", Email: "ana@personal.test", FirstName: "Ana", LastName: "Lee", Role: "physician"}
			mock.Seed(record, tt.subRoles...)
			mock.SubRolesErr = tt.subRolesErr

			match, err := NewMatcher(mock).MatchSubject(context.Background(), matchedSubject(t))
			require.NoError(t, err)

			assert.Equal(t, tt.wantID, match.SubRoleID)
			assert.Equal(t, tt.wantResolved, match.SubRoleResolved)
		})
	}
}
