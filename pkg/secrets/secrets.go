// Package secrets generates and verifies the secret material the onboarding
// flow depends on: opaque single-use token values and bcrypt hashes of the
// practitioner's chosen portal password.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "meridian/pkg/domain-errors"
)

// tokenBytes gives 256 bits of entropy per token value.
const tokenBytes = 32

// GenerateToken creates a cryptographically random, URL-safe token value.
// The result is what gets embedded in onboarding links, so it must be safe
// to place in a path segment without escaping.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateDataKey creates a fresh symmetric data-encryption key.
// Callers must wrap the result before persisting anything; the raw bytes
// never leave process memory unwrapped.
func GenerateDataKey() ([]byte, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("could not generate data key: %w", err)
	}
	return buf, nil
}

// HashPassword creates a bcrypt hash of a chosen password for at-rest storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash.
func VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeInvalidInput, "invalid password")
		}
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}
