// Package domain holds the shared value types of the platform: typed
// identifiers, the subject lifecycle, and token purposes.
//
// Typed IDs exist so a SubjectID can never be passed where a TokenID is
// expected; construct them via the Parse helpers at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "meridian/pkg/domain-errors"
)

// SubjectID identifies an applicant/practitioner record.
type SubjectID uuid.UUID

// TokenID identifies a stored single-use token row.
type TokenID uuid.UUID

// NotesKeyID identifies a wrapped notes-key record.
type NotesKeyID uuid.UUID

func (id SubjectID) String() string  { return uuid.UUID(id).String() }
func (id TokenID) String() string    { return uuid.UUID(id).String() }
func (id NotesKeyID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the ID is the nil UUID.
func (id SubjectID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TokenID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id NotesKeyID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// The IDs serialize as canonical UUID strings. Defined types do not inherit
// uuid.UUID's marshalers, so these are spelled out.
func (id SubjectID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id TokenID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id NotesKeyID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SubjectID) UnmarshalText(b []byte) error {
	parsed, err := ParseSubjectID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TokenID) UnmarshalText(b []byte) error {
	parsed, err := ParseTokenID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *NotesKeyID) UnmarshalText(b []byte) error {
	u, err := parseUUID(string(b))
	if err != nil {
		return err
	}
	*id = NotesKeyID(u)
	return nil
}

// NewSubjectID mints a random subject identifier.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewTokenID mints a random token identifier.
func NewTokenID() TokenID { return TokenID(uuid.New()) }

// NewNotesKeyID mints a random notes-key identifier.
func NewNotesKeyID() NotesKeyID { return NotesKeyID(uuid.New()) }

// ParseSubjectID validates external input as a subject ID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubjectID{}, err
	}
	return SubjectID(u), nil
}

// ParseTokenID validates external input as a token ID.
func ParseTokenID(s string) (TokenID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TokenID{}, err
	}
	return TokenID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
