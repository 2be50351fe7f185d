// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package mail delivers confirmation messages.
//
// Backends:
//   - smtp: net/smtp with dial timeout, optional STARTTLS and PLAIN auth
//   - log: writes the message to the application log (development)
//
// New wraps the selected backend in Guarded, which adds a circuit breaker
// and an outgoing rate limit. Every error returned by a Dispatcher built
// with New wraps models.ErrDispatchFailed.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/models"
)

// Dispatcher sends a single plain-text message.
type Dispatcher interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Backend names.
const (
	BackendSMTP = "smtp"
	BackendLog  = "log"
)

// New builds the configured backend behind a Guarded wrapper.
func New(cfg config.MailConfig) (*Guarded, error) {
	var inner Dispatcher
	switch cfg.Backend {
	case BackendSMTP:
		inner = NewSMTPDispatcher(cfg)
	case BackendLog, "":
		inner = NewLogDispatcher(cfg.From)
		cfg.Backend = BackendLog
	default:
		return nil, fmt.Errorf("unknown mail backend %q", cfg.Backend)
	}
	return NewGuarded(cfg.Backend, inner, cfg), nil
}

// checkHeader rejects values that would break out of a header line.
func checkHeader(name, v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: %s contains a line break", models.ErrDispatchFailed, name)
	}
	return nil
}
