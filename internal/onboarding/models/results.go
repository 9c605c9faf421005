package models

import (
	"time"

	id "meridian/pkg/domain"
)

// ProvisioningResult reports what a provisioning run actually did, step by
// step. Non-fatal steps that failed show up as false flags rather than
// errors; the caller already holds an onboarded practitioner either way.
type ProvisioningResult struct {
	SubjectID id.SubjectID `json:"subject_id"`

	// AccountCreated is false when the run adopted an existing directory
	// account instead of minting one.
	AccountCreated  bool   `json:"account_created"`
	ReusedIdentity  bool   `json:"reused_identity"`
	CorporateEmail  string `json:"corporate_email"`
	LicenseAssigned bool   `json:"license_assigned"`

	PMSRecordID     string `json:"pms_record_id"`
	SubRoleID       string `json:"sub_role_id,omitempty"`
	SubRoleResolved bool   `json:"sub_role_resolved"`

	NotesEnabled bool `json:"notes_enabled"`
	EmailSent    bool `json:"email_sent"`
}

// Token preview states. Peek is the one place the owner gets a
// differentiated answer; the consuming endpoint answers only valid or not.
const (
	TokenStateValid     = "valid"
	TokenStateExpired   = "expired"
	TokenStateCompleted = "already_completed"
)

// TokenPreview is the read-only view served when a practitioner opens
// their link, before anything is consumed.
type TokenPreview struct {
	State     string          `json:"state"`
	SubjectID id.SubjectID    `json:"subject_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Purpose   id.TokenPurpose `json:"purpose"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// IssuedToken is returned to admins after issuing or re-issuing a link.
// Value appears exactly once, here; it is never readable again.
type IssuedToken struct {
	SubjectID id.SubjectID    `json:"subject_id"`
	Purpose   id.TokenPurpose `json:"purpose"`
	Value     string          `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}
