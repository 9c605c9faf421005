package models

import (
	"time"

	id "meridian/pkg/domain"
	dErrors "meridian/pkg/domain-errors"
)

// NotesKeyRecord stores one wrapped data-encryption key for a subject.
//
// Invariants:
//   - WrappedKey holds only the vault-wrapped, base64-encoded form; the raw
//     symmetric key must never reach a store
//   - at most one record per subject has Active=true (partial unique index
//     in postgres, checked insert in the memory store)
//
// Every provisioning run appends a fresh record rather than reusing the
// previous wrapped value, even though the vault wrapping key itself is
// stable per subject.
type NotesKeyRecord struct {
	ID         id.NotesKeyID `json:"id"`
	SubjectID  id.SubjectID  `json:"subject_id"`
	KeyName    string        `json:"key_name"`
	KeyVersion string        `json:"key_version"`
	WrappedKey string        `json:"-"`
	Active     bool          `json:"active"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewNotesKeyRecord builds an active record for a freshly wrapped key.
func NewNotesKeyRecord(subjectID id.SubjectID, keyName, keyVersion, wrappedKey string, now time.Time) (*NotesKeyRecord, error) {
	if keyName == "" || keyVersion == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notes key requires a vault name and version")
	}
	if wrappedKey == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notes key requires wrapped key material")
	}
	return &NotesKeyRecord{
		ID:         id.NewNotesKeyID(),
		SubjectID:  subjectID,
		KeyName:    keyName,
		KeyVersion: keyVersion,
		WrappedKey: wrappedKey,
		Active:     true,
		CreatedAt:  now,
	}, nil
}
