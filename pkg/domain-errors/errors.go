// Package domainerrors provides coded domain errors. Call sites import it
// under the dErrors alias.
//
// Services return these so transports can map failures to status codes
// without string matching. Stores never import this package; they return
// sentinel errors (pkg/platform/sentinel) which services translate here.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"

	// Provisioning failure kinds. TokenInvalid is deliberately a single
	// undifferentiated code at the consuming boundary: never existed, wrong
	// purpose, expired and already consumed all look the same to a caller.
	CodeTokenInvalid   Code = "token_invalid"
	CodeWeakPassword   Code = "weak_password"
	CodeDirectoryFailed Code = "directory_provisioning_failed"
	CodePMSNotFound    Code = "pms_record_not_found"
	CodePMSUnavailable Code = "pms_lookup_unavailable"
)

// DomainError carries a code, a human-readable message and an optional cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New builds a domain error without a cause.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping nil returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto an HTTP status for transport layers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeWeakPassword:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenInvalid:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeUnavailable, CodePMSUnavailable:
		return http.StatusServiceUnavailable
	case CodePMSNotFound, CodeDirectoryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
