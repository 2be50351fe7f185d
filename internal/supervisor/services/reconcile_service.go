// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
)

// TitleLister enumerates the catalog.
type TitleLister interface {
	ListTitleIDs(ctx context.Context) ([]int64, error)
}

// Reconciler recomputes one title's aggregate from its reviews.
type Reconciler interface {
	Reconcile(ctx context.Context, titleID int64) (models.Aggregate, error)
}

// SweepResult summarizes one pass over the catalog.
type SweepResult struct {
	Titles  int
	Failed  int
	Skipped int
}

// ReconcileService periodically recomputes every title's rating so that an
// aggregate left stale by an aborted write converges.
type ReconcileService struct {
	titles     TitleLister
	reconciler Reconciler
	interval   time.Duration
	logger     zerolog.Logger
	name       string
}

// NewReconcileService sweeps every interval, which defaults to 6h.
func NewReconcileService(titles TitleLister, reconciler Reconciler, interval time.Duration) *ReconcileService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ReconcileService{
		titles:     titles,
		reconciler: reconciler,
		interval:   interval,
		logger:     logging.With().Str("service", "rating-reconcile").Logger(),
		name:       "rating-reconcile",
	}
}

// Serve sweeps on each tick until ctx is canceled. A failed listing is
// returned so the supervisor restarts the service with backoff.
func (s *ReconcileService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Rating reconcile service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
		}
	}
}

// Sweep reconciles every title once. Titles deleted mid-sweep are skipped
// and per-title failures are logged and counted.
func (s *ReconcileService) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	ids, err := s.titles.ListTitleIDs(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list titles: %w", err)
	}

	var res SweepResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Titles++
		if _, err := s.reconciler.Reconcile(ctx, id); err != nil {
			switch {
			case errors.Is(err, models.ErrNotFound):
				res.Skipped++
			case ctx.Err() != nil:
				return res, ctx.Err()
			default:
				res.Failed++
				s.logger.Warn().Err(err).Int64("title_id", id).Msg("Rating reconcile failed")
			}
		}
	}

	s.logger.Info().
		Int("titles", res.Titles).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Dur("duration", time.Since(start)).
		Msg("Rating sweep complete")
	return res, nil
}

func (s *ReconcileService) String() string {
	return s.name
}
