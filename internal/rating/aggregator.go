// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package rating maintains the per-title rating aggregate.
//
// Every review write goes through Aggregator.Apply, which runs the review
// mutation and the aggregate update in one transaction guarded by a
// compare-and-swap on the title version. The aggregate therefore always
// equals the mean of stored scores (within Tolerance), and review_count
// always equals the number of stored reviews.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/metrics"
	"github.com/tomtom215/critique/internal/models"
)

// errStale marks a lost compare-and-swap. It never leaves this package.
var errStale = errors.New("aggregate version changed")

// TxRunner runs fn inside one store transaction. Satisfied by *database.DB.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *database.Tx) error) error
}

// Mutation performs the review write inside tx and reports its effect on
// the aggregate. It is re-run from scratch on every retry.
type Mutation func(ctx context.Context, tx *database.Tx) (Delta, error)

// Aggregator applies review mutations together with aggregate updates.
type Aggregator struct {
	db  TxRunner
	cfg config.RatingConfig

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAggregator creates an Aggregator. Zero retry settings fall back to
// 5 attempts with 10ms..200ms backoff.
func NewAggregator(db TxRunner, cfg config.RatingConfig) *Aggregator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 10 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = 200 * time.Millisecond
	}
	return &Aggregator{db: db, cfg: cfg, sleep: sleepCtx}
}

// Apply runs mutation and folds its delta into the title aggregate
// atomically. It returns the aggregate as committed.
//
// A lost swap or a busy database rolls the attempt back and retries with
// exponential backoff. When attempts run out, models.ErrAggregateContention
// is returned. An invariant violation aborts without retry.
func (a *Aggregator) Apply(ctx context.Context, titleID int64, mutation Mutation) (models.Aggregate, error) {
	start := time.Now()
	log := logging.Ctx(ctx).With().Int64("title_id", titleID).Logger()
	kind := NoChange

	var committed models.Aggregate
	err := a.retry(ctx, &log, func(tx *database.Tx) error {
		cur, err := tx.LoadAggregate(ctx, titleID)
		if err != nil {
			return err
		}
		delta, err := mutation(ctx, tx)
		if err != nil {
			return err
		}
		kind = delta.Kind
		committed, err = fold(ctx, tx, titleID, cur, delta)
		return err
	})
	if err != nil {
		a.recordFailure(&log, kind.String(), start, err)
		if errors.Is(err, models.ErrAggregateContention) {
			err = fmt.Errorf("title %d %w", titleID, err)
		}
		return models.Aggregate{}, err
	}
	metrics.RecordAggregateUpdate(kind.String(), "ok", time.Since(start))
	return committed, nil
}

// fold applies delta to cur and swaps the result in. A lost swap yields
// errStale.
func fold(ctx context.Context, tx *database.Tx, titleID int64, cur models.Aggregate, delta Delta) (models.Aggregate, error) {
	next, err := Next(cur, delta)
	if err != nil {
		return models.Aggregate{}, err
	}
	if delta.Kind == NoChange {
		return cur, nil
	}
	swapped, err := tx.SwapAggregate(ctx, titleID, cur.Version, next)
	if err != nil {
		return models.Aggregate{}, err
	}
	if !swapped {
		return models.Aggregate{}, errStale
	}
	next.Version = cur.Version + 1
	return next, nil
}

// retry runs fn in a transaction until it commits, fails for a reason
// other than a lost swap or a busy database, or attempts run out.
func (a *Aggregator) retry(ctx context.Context, log *zerolog.Logger, fn func(tx *database.Tx) error) error {
	backoff := a.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := a.db.InTx(ctx, fn)
		if err == nil || !(errors.Is(err, errStale) || database.IsBusy(err)) {
			return err
		}

		cause := "stale"
		if !errors.Is(err, errStale) {
			cause = "busy"
		}
		metrics.AggregateRetries.WithLabelValues(cause).Inc()
		log.Debug().Int("attempt", attempt).Str("cause", cause).Msg("Retrying aggregate update")
		if attempt == a.cfg.MaxAttempts {
			return fmt.Errorf("after %d attempts: %w", attempt, models.ErrAggregateContention)
		}
		if err := a.sleep(ctx, backoff); err != nil {
			return err
		}
		if backoff *= 2; backoff > a.cfg.MaxBackoff {
			backoff = a.cfg.MaxBackoff
		}
	}
}

func (a *Aggregator) recordFailure(log *zerolog.Logger, kind string, start time.Time, err error) {
	switch {
	case errors.Is(err, models.ErrAggregateContention):
		metrics.RecordAggregateUpdate(kind, "contention", time.Since(start))
		log.Warn().Int("attempts", a.cfg.MaxAttempts).Msg("Aggregate update gave up under contention")
	case errors.Is(err, models.ErrInvariantViolation):
		metrics.RecordAggregateUpdate(kind, "invariant", time.Since(start))
		log.Error().Err(err).Msg("Rating aggregate invariant violated")
	default:
		metrics.RecordAggregateUpdate(kind, "error", time.Since(start))
	}
}

// CreateReview inserts r and counts its score. r.ID and r.PubDate are set
// on success.
func (a *Aggregator) CreateReview(ctx context.Context, r *models.Review) (models.Aggregate, error) {
	return a.Apply(ctx, r.TitleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		// Reset between attempts so a rolled-back insert does not leak ids.
		r.ID, r.PubDate = 0, time.Time{}
		if err := tx.CreateReview(ctx, r); err != nil {
			return Delta{}, err
		}
		return Delta{Kind: Created, Score: r.Score}, nil
	})
}

// UpdateReview applies the set fields of in to the stored review and
// replaces the old score's contribution with the new one. The review is
// read inside the transaction, so concurrent edits of different fields
// both survive. It returns the review as written.
func (a *Aggregator) UpdateReview(ctx context.Context, titleID, reviewID int64, in models.ReviewInput) (*models.Review, models.Aggregate, error) {
	var written *models.Review
	agg, err := a.Apply(ctx, titleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		old, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return Delta{}, err
		}
		if old.TitleID != titleID {
			return Delta{}, fmt.Errorf("review %d not on title %d: %w", reviewID, titleID, models.ErrNotFound)
		}
		r := *old
		if in.Text != nil {
			r.Text = *in.Text
		}
		if in.Score != nil {
			r.Score = *in.Score
		}
		if err := tx.UpdateReview(ctx, &r); err != nil {
			return Delta{}, err
		}
		written = &r
		if old.Score == r.Score {
			return Delta{Kind: NoChange}, nil
		}
		return Delta{Kind: Updated, Score: r.Score, OldScore: old.Score}, nil
	})
	if err != nil {
		return nil, models.Aggregate{}, err
	}
	return written, agg, nil
}

// DeleteReview removes a review and its score.
func (a *Aggregator) DeleteReview(ctx context.Context, titleID, reviewID int64) (models.Aggregate, error) {
	return a.Apply(ctx, titleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		old, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return Delta{}, err
		}
		if old.TitleID != titleID {
			return Delta{}, fmt.Errorf("review %d not on title %d: %w", reviewID, titleID, models.ErrNotFound)
		}
		if err := tx.DeleteReview(ctx, reviewID); err != nil {
			return Delta{}, err
		}
		return Delta{Kind: Deleted, Score: old.Score}, nil
	})
}

// Reconcile recomputes the aggregate of a title from its stored scores.
func (a *Aggregator) Reconcile(ctx context.Context, titleID int64) (models.Aggregate, error) {
	return a.Apply(ctx, titleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		scores, err := tx.ReviewScores(ctx, titleID)
		if err != nil {
			return Delta{}, err
		}
		return Delta{Kind: Replace, Target: Mean(scores)}, nil
	})
}

// RemoveAuthor deletes user authorID together with every review they
// wrote, folding each removed score out of its title aggregate. Everything
// happens in one transaction, so a review created concurrently is either
// counted and removed here or rejected because its author is gone. It
// returns the number of reviews removed.
func (a *Aggregator) RemoveAuthor(ctx context.Context, authorID int64) (int, error) {
	start := time.Now()
	log := logging.Ctx(ctx).With().Int64("author_id", authorID).Logger()

	removed := 0
	err := a.retry(ctx, &log, func(tx *database.Tx) error {
		removed = 0
		reviews, err := tx.ReviewsByAuthor(ctx, authorID)
		if err != nil {
			return err
		}

		byTitle := make(map[int64][]models.Review)
		var order []int64
		for _, r := range reviews {
			if _, seen := byTitle[r.TitleID]; !seen {
				order = append(order, r.TitleID)
			}
			byTitle[r.TitleID] = append(byTitle[r.TitleID], r)
		}

		for _, titleID := range order {
			cur, err := tx.LoadAggregate(ctx, titleID)
			if err != nil {
				return err
			}
			next := cur
			for _, r := range byTitle[titleID] {
				if err := tx.DeleteReview(ctx, r.ID); err != nil {
					return err
				}
				if next, err = Next(next, Delta{Kind: Deleted, Score: r.Score}); err != nil {
					return err
				}
				removed++
			}
			if _, err := fold(ctx, tx, titleID, cur, Delta{Kind: Replace, Target: next}); err != nil {
				return err
			}
		}
		return tx.DeleteUser(ctx, authorID)
	})
	if err != nil {
		a.recordFailure(&log, Deleted.String(), start, err)
		if errors.Is(err, models.ErrAggregateContention) {
			err = fmt.Errorf("author %d %w", authorID, err)
		}
		return 0, err
	}
	metrics.RecordAggregateUpdate(Deleted.String(), "ok", time.Since(start))
	return removed, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
