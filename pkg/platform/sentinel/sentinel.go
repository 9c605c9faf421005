// Package sentinel holds the error vocabulary of the storage layer.
//
// Stores report infrastructure facts with these values (optionally wrapped)
// and services translate them into coded domain errors. They describe the
// state of a resource, not a validation failure:
//   - ErrNotFound: the row/record does not exist
//   - ErrExpired: a token's expiry has passed
//   - ErrAlreadyUsed: a single-use token was already consumed
//   - ErrInvalidState: the entity cannot accept the requested mutation
//   - ErrUnavailable: the backing store cannot be reached right now
//
// Validation failures belong in pkg/domain-errors, not here.
package sentinel

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
