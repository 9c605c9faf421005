package models

import (
	"strings"
	"time"

	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

// Subject is the aggregate root for an applicant/practitioner.
//
// Invariants:
//   - PersonalEmail is non-empty and unique across subjects
//   - Status moves only along the lifecycle table in pkg/domain
//   - Rows are never deleted, only status-transitioned
//
// The provisioning fields (DirectoryID, CorporateEmail, PMSRecordID,
// PMSSubRoleID, NotesEnabled) double as the saga's idempotency ledger: a
// non-empty value means that step already completed for this subject, so a
// re-run skips the external call. Correctness therefore depends on each
// field being persisted in the same transaction that records the external
// call's success.
type Subject struct {
	ID            id.SubjectID     `json:"id"`
	FirstName     string           `json:"first_name"`
	LastName      string           `json:"last_name"`
	PersonalEmail string           `json:"personal_email"`
	Phone         string           `json:"phone"`
	Status        id.SubjectStatus `json:"status"`

	DirectoryID     string `json:"directory_id"`
	CorporateEmail  string `json:"corporate_email"`
	PMSRecordID     string `json:"pms_record_id"`
	PMSSubRoleID    string `json:"pms_sub_role_id"`
	NotesEnabled    bool   `json:"notes_enabled"`
	LicenseAssigned bool   `json:"license_assigned"`

	// PortalPasswordHash is the bcrypt hash of the chosen portal password.
	// Never serialized.
	PortalPasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubject constructs a subject in the applied state.
func NewSubject(subjectID id.SubjectID, firstName, lastName, personalEmail, phone string, now time.Time) (*Subject, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	personalEmail = strings.ToLower(strings.TrimSpace(personalEmail))

	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject name cannot be empty")
	}
	if personalEmail == "" || !strings.Contains(personalEmail, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "subject requires a personal email")
	}

	return &Subject{
		ID:            subjectID,
		FirstName:     firstName,
		LastName:      lastName,
		PersonalEmail: personalEmail,
		Phone:         strings.TrimSpace(phone),
		Status:        id.StatusApplied,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanTransition checks an admin-driven lifecycle move.
func (s *Subject) CanTransition(next id.SubjectStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot move subject from %s to %s", s.Status, next)
	}
	return nil
}

// ApplyTransition performs a validated lifecycle move.
func (s *Subject) ApplyTransition(next id.SubjectStatus, now time.Time) {
	s.Status = next
	s.UpdatedAt = now
}

// CanBeginProvisioning guards saga entry: only a subject sitting at
// offer_accepted may start onboarding.
func (s *Subject) CanBeginProvisioning() error {
	if s.Status == id.StatusOnboarded {
		return dErrors.New(dErrors.CodeConflict, "subject is already onboarded")
	}
	if s.Status != id.StatusOfferAccepted && s.Status != id.StatusOnboardingInProg {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"subject in status %s cannot begin onboarding", s.Status)
	}
	return nil
}

// IdentityProvisioned reports whether the directory step already completed.
func (s *Subject) IdentityProvisioned() bool { return s.DirectoryID != "" }

// PMSMatched reports whether the practice-management match already completed.
func (s *Subject) PMSMatched() bool { return s.PMSRecordID != "" }

// ApplyIdentity records the directory step's outcome.
func (s *Subject) ApplyIdentity(directoryID, corporateEmail string, licenseAssigned bool, now time.Time) {
	s.DirectoryID = directoryID
	s.CorporateEmail = corporateEmail
	s.LicenseAssigned = licenseAssigned
	s.UpdatedAt = now
}

// ApplyPMSMatch records the practice-management step's outcome. The sub-role
// id may be empty; it is optional metadata.
func (s *Subject) ApplyPMSMatch(recordID, subRoleID string, now time.Time) {
	s.PMSRecordID = recordID
	s.PMSSubRoleID = subRoleID
	s.UpdatedAt = now
}

// ApplyOnboarded flips the subject to its terminal provisioned state.
func (s *Subject) ApplyOnboarded(now time.Time) {
	s.Status = id.StatusOnboarded
	s.UpdatedAt = now
}

// ApplyNotesEnabled records the key step's outcome.
func (s *Subject) ApplyNotesEnabled(enabled bool, now time.Time) {
	s.NotesEnabled = enabled
	s.UpdatedAt = now
}

// DisplayName is the full name used for directory accounts and email
// greetings.
func (s *Subject) DisplayName() string {
	return s.FirstName + " " + s.LastName
}
