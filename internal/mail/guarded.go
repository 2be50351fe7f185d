// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/metrics"
	"github.com/tomtom215/critique/internal/models"
)

// Guarded throttles and circuit-breaks another Dispatcher.
//
// The breaker opens after BreakerMaxFailures consecutive failures and
// stays open for BreakerTimeout, during which sends fail fast. The limiter
// blocks until a token is available or ctx ends.
type Guarded struct {
	backend string
	inner   Dispatcher
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// NewGuarded wraps inner. backend labels metrics and the breaker name.
func NewGuarded(backend string, inner Dispatcher, cfg config.MailConfig) *Guarded {
	name := "mail-" + backend

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= maxFailures
			if trip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Guarded{
		backend: backend,
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
	}
}

// Send dispatches through the limiter and breaker.
func (g *Guarded) Send(ctx context.Context, recipient, subject, body string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		metrics.RecordMailDispatch(g.backend, "throttled")
		return fmt.Errorf("%w: rate limited: %w", models.ErrDispatchFailed, err)
	}

	_, err := g.cb.Execute(func() (struct{}, error) {
		return struct{}{}, g.inner.Send(ctx, recipient, subject, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordMailDispatch(g.backend, "circuit_open")
		} else {
			metrics.RecordMailDispatch(g.backend, "failed")
		}
		logging.Ctx(ctx).Warn().Err(err).Str("backend", g.backend).Msg("Message dispatch failed")
		if errors.Is(err, models.ErrDispatchFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", models.ErrDispatchFailed, err)
	}

	metrics.RecordMailDispatch(g.backend, "sent")
	return nil
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
