// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package auth issues and verifies credentials.
//
// Two credentials exist. A confirmation code is a stateless HMAC over the
// user's persisted state plus a timestamp, mailed at signup and exchanged
// once for an access token. An access token is an HS256 JWT carried as a
// bearer token. Both keys are derived from the configured secret with
// HKDF so neither credential can stand in for the other.
package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/tomtom215/critique/internal/config"
)

const (
	infoAccessToken      = "critique/access-token/v1"
	infoConfirmationCode = "critique/confirmation-code/v1"
	derivedKeyLen        = 32
)

// deriveKey expands secret into a purpose-bound key.
func deriveKey(secret, info string) ([]byte, error) {
	if len(secret) < config.MinSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", config.MinSecretLength)
	}
	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
