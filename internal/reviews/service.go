// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package reviews handles reviews under a title and comments under a
// review.
//
// Every operation resolves the path first, then authorizes against the
// resolved owner, then mutates. Review writes go through the rating
// aggregator so a title's rating always matches its reviews.
package reviews

import (
	"context"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/resolver"
	"github.com/tomtom215/critique/internal/validation"
)

// Store is the review and comment persistence. Satisfied by *database.DB.
type Store interface {
	resolver.Store
	ListReviews(ctx context.Context, titleID int64, p models.Page) ([]models.Review, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context, reviewID int64, p models.Page) ([]models.Comment, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
}

// Aggregator applies review writes together with rating updates.
// Satisfied by *rating.Aggregator.
type Aggregator interface {
	CreateReview(ctx context.Context, r *models.Review) (models.Aggregate, error)
	UpdateReview(ctx context.Context, titleID, reviewID int64, in models.ReviewInput) (*models.Review, models.Aggregate, error)
	DeleteReview(ctx context.Context, titleID, reviewID int64) (models.Aggregate, error)
	Reconcile(ctx context.Context, titleID int64) (models.Aggregate, error)
}

// Service implements review and comment operations.
type Service struct {
	store    Store
	resolver *resolver.Resolver
	agg      Aggregator
	policy   *authz.Engine
}

// NewService creates a review service.
func NewService(store Store, agg Aggregator, policy *authz.Engine) *Service {
	return &Service{
		store:    store,
		resolver: resolver.New(store),
		agg:      agg,
		policy:   policy,
	}
}

type reviewRules struct {
	Text  *string `json:"text" validate:"omitnil,min=1"`
	Score *int    `json:"score" validate:"omitnil,score"`
}

func validateReview(in models.ReviewInput, create bool) error {
	if create {
		if in.Text == nil {
			return validation.Invalid("text", "text is required")
		}
		if in.Score == nil {
			return validation.Invalid("score", "score is required")
		}
	}
	return validation.ValidateStruct(reviewRules(in))
}

// ListReviews lists the reviews of a title, newest first.
func (s *Service) ListReviews(ctx context.Context, subject *auth.Subject, titleID int64, p models.Page) ([]models.Review, error) {
	if _, err := s.resolver.ResolveReview(ctx, titleID); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindReview)); err != nil {
		return nil, err
	}
	return s.store.ListReviews(ctx, titleID, p)
}

// GetReview returns one review of a title.
func (s *Service) GetReview(ctx context.Context, subject *auth.Subject, titleID, reviewID int64) (*models.Review, error) {
	_, review, err := s.resolver.ResolveReviewItem(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionRetrieve, authz.OwnedBy(authz.KindReview, review.AuthorID)); err != nil {
		return nil, err
	}
	return review, nil
}

// CreateReview adds the subject's review of a title. A second review by
// the same author is a conflict.
func (s *Service) CreateReview(ctx context.Context, subject *auth.Subject, titleID int64, in models.ReviewInput) (*models.Review, error) {
	if _, err := s.resolver.ResolveReview(ctx, titleID); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindReview)); err != nil {
		return nil, err
	}
	if err := validateReview(in, true); err != nil {
		return nil, err
	}

	r := &models.Review{
		TitleID: titleID,
		Authored: models.Authored{
			AuthorID:       subject.ID(),
			AuthorUsername: subject.Username(),
			Text:           *in.Text,
		},
		Score: *in.Score,
	}
	agg, err := s.agg.CreateReview(ctx, r)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("title_id", titleID).Int64("review_id", r.ID).
		Int("review_count", agg.ReviewCount).Msg("Review created")
	return r, nil
}

// UpdateReview edits a review's text and score. Only the fields set in in
// are written; the rest keep whatever the stored row holds at commit time.
func (s *Service) UpdateReview(ctx context.Context, subject *auth.Subject, titleID, reviewID int64, in models.ReviewInput) (*models.Review, error) {
	_, review, err := s.resolver.ResolveReviewItem(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionUpdate, authz.OwnedBy(authz.KindReview, review.AuthorID)); err != nil {
		return nil, err
	}
	if err := validateReview(in, false); err != nil {
		return nil, err
	}

	written, _, err := s.agg.UpdateReview(ctx, titleID, reviewID, in)
	if err != nil {
		return nil, err
	}
	return written, nil
}

// DeleteReview removes a review with its comments.
func (s *Service) DeleteReview(ctx context.Context, subject *auth.Subject, titleID, reviewID int64) error {
	_, review, err := s.resolver.ResolveReviewItem(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(subject, authz.ActionDelete, authz.OwnedBy(authz.KindReview, review.AuthorID)); err != nil {
		return err
	}
	if _, err := s.agg.DeleteReview(ctx, titleID, reviewID); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("title_id", titleID).Int64("review_id", reviewID).Msg("Review deleted")
	return nil
}

// Reconcile recomputes a title's rating from its stored reviews.
func (s *Service) Reconcile(ctx context.Context, subject *auth.Subject, titleID int64) (models.Aggregate, error) {
	if _, err := s.resolver.ResolveReview(ctx, titleID); err != nil {
		return models.Aggregate{}, err
	}
	if err := s.policy.Authorize(subject, authz.ActionUpdate, authz.On(authz.KindTitle)); err != nil {
		return models.Aggregate{}, err
	}
	return s.agg.Reconcile(ctx, titleID)
}
