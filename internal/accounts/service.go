// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package accounts implements passwordless signup, confirmation code
// redemption, self-service profiles and user administration.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/mail"
	"github.com/tomtom215/critique/internal/metrics"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

// DefaultSubject is used when no message subject is configured.
const DefaultSubject = "Your confirmation code"

// Store is the user persistence the service needs. Satisfied by
// *database.DB.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SwapLastLogin(ctx context.Context, id int64, prev *time.Time, at time.Time) (bool, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ReviewRemover deletes a user together with their reviews in one
// transaction, keeping title aggregates consistent. Satisfied by
// *rating.Aggregator.
type ReviewRemover interface {
	RemoveAuthor(ctx context.Context, authorID int64) (int, error)
}

// Service implements account flows.
type Service struct {
	store   Store
	issuer  *auth.Issuer
	mailer  mail.Dispatcher
	policy  *authz.Engine
	reviews ReviewRemover
	subject string
	now     func() time.Time
}

// NewService wires the account flows. An empty messageSubject uses
// DefaultSubject.
func NewService(store Store, issuer *auth.Issuer, mailer mail.Dispatcher, policy *authz.Engine, reviews ReviewRemover, messageSubject string) *Service {
	if messageSubject == "" {
		messageSubject = DefaultSubject
	}
	return &Service{
		store:   store,
		issuer:  issuer,
		mailer:  mailer,
		policy:  policy,
		reviews: reviews,
		subject: messageSubject,
		now:     time.Now,
	}
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

// SignupResult echoes the registered identity.
type SignupResult struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup registers a user, or re-sends a code when the exact
// (username, email) pair already exists, and mails a confirmation code.
//
// If the message cannot be sent, a user created by this call is removed
// again so the signup can be retried cleanly.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)

	user, created, err := s.findOrCreate(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			metrics.SignupsTotal.WithLabelValues("conflict").Inc()
		}
		return nil, err
	}

	code := s.issuer.IssueConfirmationCode(user)
	if err := s.mailer.Send(ctx, user.Email, s.subject, "Your confirmation code: "+code); err != nil {
		metrics.SignupsTotal.WithLabelValues("dispatch_failed").Inc()
		if created {
			if delErr := s.store.DeleteUser(ctx, user.ID); delErr != nil {
				log.Error().Err(delErr).Str("username", user.Username).Msg("Failed to remove user after dispatch failure")
			}
		}
		if !errors.Is(err, models.ErrDispatchFailed) {
			err = fmt.Errorf("%w: %w", models.ErrDispatchFailed, err)
		}
		return nil, err
	}

	outcome := "resent"
	if created {
		outcome = "created"
	}
	metrics.SignupsTotal.WithLabelValues(outcome).Inc()
	log.Info().Str("username", user.Username).Str("outcome", outcome).Msg("Confirmation code sent")

	return &SignupResult{Username: user.Username, Email: user.Email}, nil
}

func (s *Service) findOrCreate(ctx context.Context, req SignupRequest) (*models.User, bool, error) {
	byName, err := lookup(s.store.GetUserByUsername(ctx, req.Username))
	if err != nil {
		return nil, false, err
	}
	byEmail, err := lookup(s.store.GetUserByEmail(ctx, req.Email))
	if err != nil {
		return nil, false, err
	}

	switch {
	case byName != nil && byEmail != nil && byName.ID == byEmail.ID:
		return byName, false, nil
	case byName != nil:
		return nil, false, fmt.Errorf("%w: username %q is already taken", models.ErrConflict, req.Username)
	case byEmail != nil:
		return nil, false, fmt.Errorf("%w: email %q is already registered", models.ErrConflict, req.Email)
	}

	u := &models.User{Username: req.Username, Email: req.Email, Role: models.RoleUser}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// lookup turns ErrNotFound into a nil user.
func lookup(u *models.User, err error) (*models.User, error) {
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// TokenRequest exchanges a confirmation code for an access token.
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" validate:"required,max=256"`
}

// TokenResult carries the issued access token.
type TokenResult struct {
	Token string `json:"token"`
}

// RedeemCode verifies a confirmation code and issues an access token.
// Redemption records a login, which invalidates the code.
func (s *Service) RedeemCode(ctx context.Context, req TokenRequest) (*TokenResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.TokenRedemptions.WithLabelValues("unknown_user").Inc()
		}
		return nil, err
	}

	if !s.issuer.VerifyConfirmationCode(user, req.ConfirmationCode) {
		metrics.TokenRedemptions.WithLabelValues("invalid_code").Inc()
		return nil, fmt.Errorf("%w: confirmation code is invalid or expired", models.ErrInvalidCredential)
	}

	// A concurrent redemption of the same code moves last_login_at first;
	// the loser sees a stale value and is rejected like a reused code.
	ok, err := s.store.SwapLastLogin(ctx, user.ID, user.LastLoginAt, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.TokenRedemptions.WithLabelValues("invalid_code").Inc()
		return nil, fmt.Errorf("%w: confirmation code already used", models.ErrInvalidCredential)
	}

	token, err := s.issuer.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	metrics.TokenRedemptions.WithLabelValues("issued").Inc()
	logging.Ctx(ctx).Info().Str("username", user.Username).Msg("Access token issued")
	return &TokenResult{Token: token}, nil
}
