// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
)

// UserLoader loads the current state of a user. Satisfied by *database.DB.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ErrorWriter renders an authentication failure. err always wraps
// models.ErrUnauthenticated.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates bearer tokens.
//
// A request without an Authorization header proceeds as the anonymous
// subject. A request with a header that does not yield a live user is
// rejected immediately; it never degrades to anonymous. The user record is
// reloaded on every request so role and staff changes take effect at once.
type Middleware struct {
	tokens  *JWTManager
	users   UserLoader
	onError ErrorWriter
}

// NewMiddleware creates the authentication middleware. A nil onError
// writes a plain 401.
func NewMiddleware(tokens *JWTManager, users UserLoader, onError ErrorWriter) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
	return &Middleware{tokens: tokens, users: users, onError: onError}
}

// Handler is the chi-compatible middleware.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), Anonymous())))
			return
		}

		subject, err := m.authenticate(r.Context(), header)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrExpiredCredentials) {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Authentication failed")
				err = fmt.Errorf("%w: %w", models.ErrUnauthenticated, err)
			}
			m.onError(w, r, err)
			return
		}

		ctx := ContextWithSubject(r.Context(), subject)
		ctx = logging.ContextWithSubject(ctx, subject.Username())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(ctx context.Context, header string) (*Subject, error) {
	token := extractBearer(header)
	if token == "" {
		return nil, ErrInvalidCredentials
	}

	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := m.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return NewSubject(user), nil
}

// extractBearer accepts "Bearer <token>" with any casing of the scheme.
func extractBearer(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
