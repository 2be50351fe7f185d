// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package models

import "errors"

// Domain error taxonomy. Every layer wraps these with fmt.Errorf("...: %w")
// and the HTTP layer maps them to status codes in one place.
var (
	// ErrNotFound is returned when a referenced entity does not exist or is
	// not reachable through the requested path.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on uniqueness violations (duplicate review,
	// username or email taken, slug taken).
	ErrConflict = errors.New("conflict")

	// ErrUnauthenticated is returned when a write or user-scoped operation
	// is attempted without a valid identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the identity is known but not allowed.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredential is returned when a confirmation code does not
	// verify. It is a client input error, distinct from ErrUnauthenticated.
	ErrInvalidCredential = errors.New("invalid confirmation code")

	// ErrInvalidInput is returned when request fields fail validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDispatchFailed is returned when a confirmation message could not be
	// handed to the mail transport.
	ErrDispatchFailed = errors.New("message dispatch failed")

	// ErrInvariantViolation signals an aggregate inconsistency. It is never
	// expected in normal operation.
	ErrInvariantViolation = errors.New("aggregate invariant violation")

	// ErrAggregateContention is returned when the rating aggregate could not
	// be updated within the retry budget. Callers may retry.
	ErrAggregateContention = errors.New("aggregate update contention")
)
