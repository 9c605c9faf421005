package domain

import dErrors "meridian/pkg/domain-errors"

// TokenPurpose scopes a single-use token to the workflow that may consume it.
// Invariant: the value must be one of the supported purposes; construct via
// ParseTokenPurpose at trust boundaries, direct casting bypasses validation.
type TokenPurpose string

const (
	PurposeOnboarding      TokenPurpose = "onboarding"
	PurposeInterviewSched  TokenPurpose = "interview_scheduling"
	PurposeOfferAcceptance TokenPurpose = "offer_acceptance"
)

var validTokenPurposes = map[TokenPurpose]bool{
	PurposeOnboarding:      true,
	PurposeInterviewSched:  true,
	PurposeOfferAcceptance: true,
}

// ParseTokenPurpose constructs a TokenPurpose from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseTokenPurpose(s string) (TokenPurpose, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "token purpose cannot be empty")
	}
	p := TokenPurpose(s)
	if !validTokenPurposes[p] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported token purpose")
	}
	return p, nil
}

// IsValid reports whether the purpose is one of the supported values.
func (p TokenPurpose) IsValid() bool { return validTokenPurposes[p] }
