// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package auth

import (
	"context"
	"errors"

	"github.com/tomtom215/critique/internal/models"
)

// Authentication errors.
var (
	// ErrInvalidCredentials indicates a malformed or forged token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates a token past its expiry.
	ErrExpiredCredentials = errors.New("credentials expired")
)

// Subject is the acting identity of a request. A nil User means anonymous;
// anonymity is always explicit, never an absent subject.
type Subject struct {
	User *models.User
}

var anonymous = &Subject{}

// Anonymous returns the shared anonymous subject.
func Anonymous() *Subject {
	return anonymous
}

// NewSubject wraps an authenticated user.
func NewSubject(u *models.User) *Subject {
	return &Subject{User: u}
}

// IsAnonymous reports whether no user is authenticated.
func (s *Subject) IsAnonymous() bool {
	return s == nil || s.User == nil
}

// ID returns the user id, or 0 for anonymous.
func (s *Subject) ID() int64 {
	if s.IsAnonymous() {
		return 0
	}
	return s.User.ID
}

// Username returns the username, or "" for anonymous.
func (s *Subject) Username() string {
	if s.IsAnonymous() {
		return ""
	}
	return s.User.Username
}

type contextKey string

// SubjectContextKey is the context key for *Subject.
const SubjectContextKey contextKey = "auth_subject"

// ContextWithSubject stores s in ctx.
func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, SubjectContextKey, s)
}

// GetSubject returns the subject stored by the middleware, or the
// anonymous subject.
func GetSubject(ctx context.Context) *Subject {
	if s, ok := ctx.Value(SubjectContextKey).(*Subject); ok && s != nil {
		return s
	}
	return anonymous
}
