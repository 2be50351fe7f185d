// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package auth

import (
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/models"
)

// Issuer is the credential issuer used by account flows.
type Issuer struct {
	codes  *CodeIssuer
	tokens *JWTManager
}

// NewIssuer builds both credential managers from the security config.
func NewIssuer(cfg *config.SecurityConfig) (*Issuer, error) {
	tokens, err := NewJWTManager(cfg)
	if err != nil {
		return nil, err
	}
	codes, err := NewCodeIssuer(cfg)
	if err != nil {
		return nil, err
	}
	return &Issuer{codes: codes, tokens: tokens}, nil
}

// IssueConfirmationCode returns a code bound to the user's current state.
func (i *Issuer) IssueConfirmationCode(u *models.User) string {
	return i.codes.Issue(u)
}

// VerifyConfirmationCode checks a code against the user's current state.
func (i *Issuer) VerifyConfirmationCode(u *models.User, code string) bool {
	return i.codes.Verify(u, code)
}

// IssueAccessToken signs an access token for u.
func (i *Issuer) IssueAccessToken(u *models.User) (string, error) {
	return i.tokens.GenerateToken(u)
}

// Tokens exposes the JWT manager for the authentication middleware.
func (i *Issuer) Tokens() *JWTManager {
	return i.tokens
}
