// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package resolver turns nested path parameters into entities and enforces
// that each child really belongs to its parent. A review that exists but
// hangs off another title is reported as not found.
package resolver

import (
	"context"
	"fmt"

	"github.com/tomtom215/critique/internal/models"
)

// Store is the read surface the resolver needs. Satisfied by
// *database.DB and *database.Tx.
type Store interface {
	GetTitle(ctx context.Context, id int64) (*models.Title, error)
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
}

// Resolver resolves title/review/comment paths.
type Resolver struct {
	store Store
}

// New creates a Resolver over store.
func New(store Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveReview resolves the parent title of a review collection.
func (r *Resolver) ResolveReview(ctx context.Context, titleID int64) (*models.Title, error) {
	title, err := r.store.GetTitle(ctx, titleID)
	if err != nil {
		return nil, fmt.Errorf("title %d: %w", titleID, err)
	}
	return title, nil
}

// ResolveComment resolves the title and review a comment collection hangs
// off.
func (r *Resolver) ResolveComment(ctx context.Context, titleID, reviewID int64) (*models.Title, *models.Review, error) {
	title, err := r.ResolveReview(ctx, titleID)
	if err != nil {
		return nil, nil, err
	}
	review, err := r.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, nil, fmt.Errorf("review %d: %w", reviewID, err)
	}
	if review.TitleID != title.ID {
		return nil, nil, fmt.Errorf("review %d under title %d: %w", reviewID, titleID, models.ErrNotFound)
	}
	return title, review, nil
}

// ResolveReviewItem resolves one review under its title.
func (r *Resolver) ResolveReviewItem(ctx context.Context, titleID, reviewID int64) (*models.Title, *models.Review, error) {
	return r.ResolveComment(ctx, titleID, reviewID)
}

// ResolveCommentItem resolves one comment under its review and title.
func (r *Resolver) ResolveCommentItem(ctx context.Context, titleID, reviewID, commentID int64) (*models.Title, *models.Review, *models.Comment, error) {
	title, review, err := r.ResolveComment(ctx, titleID, reviewID)
	if err != nil {
		return nil, nil, nil, err
	}
	comment, err := r.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("comment %d: %w", commentID, err)
	}
	if comment.ReviewID != review.ID {
		return nil, nil, nil, fmt.Errorf("comment %d under review %d: %w", commentID, reviewID, models.ErrNotFound)
	}
	return title, review, comment, nil
}
