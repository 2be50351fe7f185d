// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package mail

import (
	"context"

	"github.com/tomtom215/critique/internal/logging"
)

// LogDispatcher writes messages to the application log instead of
// sending them. The body is logged in full, codes included, so this
// backend must not be used in production.
type LogDispatcher struct {
	from string
}

// NewLogDispatcher creates a log backend.
func NewLogDispatcher(from string) *LogDispatcher {
	return &LogDispatcher{from: from}
}

// Send logs the message at info level.
func (d *LogDispatcher) Send(ctx context.Context, recipient, subject, body string) error {
	if err := checkHeader("recipient", recipient); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().
		Str("from", d.from).
		Str("to", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("Outgoing message")
	return nil
}
