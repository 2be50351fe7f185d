// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package rating

import (
	"fmt"
	"math"

	"github.com/tomtom215/critique/internal/models"
)

// Tolerance is the relative error accepted between an incrementally
// maintained rating and the exact mean.
const Tolerance = 1e-9

// DeltaKind names the review change being folded into an aggregate.
type DeltaKind int

const (
	// NoChange leaves the aggregate untouched (for example a review edit
	// that kept its score).
	NoChange DeltaKind = iota
	Created
	Updated
	Deleted
	// Replace overwrites the aggregate with a recomputed value.
	Replace
)

func (k DeltaKind) String() string {
	switch k {
	case NoChange:
		return "none"
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Replace:
		return "replace"
	}
	return fmt.Sprintf("DeltaKind(%d)", int(k))
}

// Delta describes one review change.
type Delta struct {
	Kind DeltaKind

	// Score is the new score for Created and Updated, and the removed
	// score for Deleted.
	Score int

	// OldScore is the previous score for Updated.
	OldScore int

	// Target is the replacement for Replace.
	Target models.Aggregate
}

// Next folds d into agg and returns the new aggregate. Version is carried
// over unchanged; the store advances it on swap.
func Next(agg models.Aggregate, d Delta) (models.Aggregate, error) {
	if err := Check(agg); err != nil {
		return agg, err
	}

	next := models.Aggregate{Version: agg.Version}
	c := float64(agg.ReviewCount)

	switch d.Kind {
	case NoChange:
		return agg, nil

	case Created:
		if err := checkScore(d.Score); err != nil {
			return agg, err
		}
		if agg.ReviewCount == 0 {
			next.Rating = ptr(float64(d.Score))
		} else {
			next.Rating = ptr((float64(d.Score) + *agg.Rating*c) / (c + 1))
		}
		next.ReviewCount = agg.ReviewCount + 1

	case Updated:
		if agg.ReviewCount == 0 {
			return agg, fmt.Errorf("update on title without reviews: %w", models.ErrInvariantViolation)
		}
		if err := checkScore(d.Score); err != nil {
			return agg, err
		}
		if err := checkScore(d.OldScore); err != nil {
			return agg, err
		}
		next.Rating = ptr(*agg.Rating + float64(d.Score-d.OldScore)/c)
		next.ReviewCount = agg.ReviewCount

	case Deleted:
		if agg.ReviewCount == 0 {
			return agg, fmt.Errorf("delete on title without reviews: %w", models.ErrInvariantViolation)
		}
		if err := checkScore(d.Score); err != nil {
			return agg, err
		}
		if agg.ReviewCount > 1 {
			next.Rating = ptr((*agg.Rating*c - float64(d.Score)) / (c - 1))
		}
		next.ReviewCount = agg.ReviewCount - 1

	case Replace:
		next.Rating = d.Target.Rating
		next.ReviewCount = d.Target.ReviewCount

	default:
		return agg, fmt.Errorf("unknown delta kind %v: %w", d.Kind, models.ErrInvariantViolation)
	}

	if err := Check(next); err != nil {
		return agg, err
	}
	return next, nil
}

// Check verifies the aggregate shape: rating present exactly when there
// are reviews, and within score bounds.
func Check(agg models.Aggregate) error {
	switch {
	case agg.ReviewCount < 0:
		return fmt.Errorf("negative review count %d: %w", agg.ReviewCount, models.ErrInvariantViolation)
	case agg.ReviewCount == 0 && agg.Rating != nil:
		return fmt.Errorf("rating %v without reviews: %w", *agg.Rating, models.ErrInvariantViolation)
	case agg.ReviewCount > 0 && agg.Rating == nil:
		return fmt.Errorf("%d reviews without rating: %w", agg.ReviewCount, models.ErrInvariantViolation)
	}
	if agg.Rating != nil {
		r := *agg.Rating
		lo, hi := float64(models.MinScore), float64(models.MaxScore)
		if math.IsNaN(r) || r < lo-lo*Tolerance || r > hi+hi*Tolerance {
			return fmt.Errorf("rating %v out of bounds: %w", r, models.ErrInvariantViolation)
		}
	}
	return nil
}

// Mean computes the exact aggregate of a score set.
func Mean(scores []int) models.Aggregate {
	if len(scores) == 0 {
		return models.Aggregate{}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return models.Aggregate{
		Rating:      ptr(float64(sum) / float64(len(scores))),
		ReviewCount: len(scores),
	}
}

// Within reports whether got is within Tolerance of want, relative to want.
func Within(got, want float64) bool {
	return math.Abs(got-want) <= Tolerance*math.Max(1, math.Abs(want))
}

func checkScore(s int) error {
	if s < models.MinScore || s > models.MaxScore {
		return fmt.Errorf("score %d out of range: %w", s, models.ErrInvariantViolation)
	}
	return nil
}

func ptr(f float64) *float64 { return &f }
