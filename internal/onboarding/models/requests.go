// Package models holds the request and result shapes of the onboarding
// workflow.
package models

import (
	"strings"
	"unicode"

	dErrors "meridian/pkg/domain-errors"
)

const minPasswordLength = 8

// CompleteRequest is the practitioner-facing payload that finishes
// onboarding: the single-use token from their link plus the portal password
// they chose.
type CompleteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate applies local checks only. The password policy runs before any
// token lookup or external call so a weak password costs nothing.
func (r *CompleteRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "token is required")
	}
	return ValidatePassword(r.Password)
}

// ValidatePassword enforces the portal password policy: at least eight
// characters with an upper-case letter, a lower-case letter, and a digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeWeakPassword,
			"password must be at least %d characters", minPasswordLength)
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return dErrors.New(dErrors.CodeWeakPassword,
			"password must mix upper-case, lower-case, and digits")
	}
	return nil
}

// CreateSubjectRequest is the admin payload that registers an applicant.
type CreateSubjectRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PersonalEmail string `json:"personal_email"`
	Phone         string `json:"phone"`
}

func (r *CreateSubjectRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "first and last name are required")
	}
	email := strings.TrimSpace(r.PersonalEmail)
	if email == "" || !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeInvalidInput, "a valid personal email is required")
	}
	return nil
}

// TransitionRequest is the admin payload for a lifecycle move.
type TransitionRequest struct {
	Status string `json:"status"`
}
