// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package reviews

import (
	"context"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

func validateComment(in models.CommentInput) error {
	if in.Text == nil || *in.Text == "" {
		return validation.Invalid("text", "text is required")
	}
	return nil
}

// ListComments lists the comments of a review, newest first.
func (s *Service) ListComments(ctx context.Context, subject *auth.Subject, titleID, reviewID int64, p models.Page) ([]models.Comment, error) {
	if _, _, err := s.resolver.ResolveComment(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindComment)); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, reviewID, p)
}

// GetComment returns one comment.
func (s *Service) GetComment(ctx context.Context, subject *auth.Subject, titleID, reviewID, commentID int64) (*models.Comment, error) {
	_, _, c, err := s.resolver.ResolveCommentItem(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionRetrieve, authz.OwnedBy(authz.KindComment, c.AuthorID)); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateComment adds the subject's comment to a review.
func (s *Service) CreateComment(ctx context.Context, subject *auth.Subject, titleID, reviewID int64, in models.CommentInput) (*models.Comment, error) {
	if _, _, err := s.resolver.ResolveComment(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindComment)); err != nil {
		return nil, err
	}
	if err := validateComment(in); err != nil {
		return nil, err
	}

	c := &models.Comment{
		ReviewID: reviewID,
		Authored: models.Authored{
			AuthorID:       subject.ID(),
			AuthorUsername: subject.Username(),
			Text:           *in.Text,
		},
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComment edits a comment's text.
func (s *Service) UpdateComment(ctx context.Context, subject *auth.Subject, titleID, reviewID, commentID int64, in models.CommentInput) (*models.Comment, error) {
	_, _, c, err := s.resolver.ResolveCommentItem(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(subject, authz.ActionUpdate, authz.OwnedBy(authz.KindComment, c.AuthorID)); err != nil {
		return nil, err
	}
	if in.Text == nil {
		return c, nil
	}
	if err := validateComment(in); err != nil {
		return nil, err
	}
	c.Text = *in.Text
	if err := s.store.UpdateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, subject *auth.Subject, titleID, reviewID, commentID int64) error {
	_, _, c, err := s.resolver.ResolveCommentItem(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(subject, authz.ActionDelete, authz.OwnedBy(authz.KindComment, c.AuthorID)); err != nil {
		return err
	}
	return s.store.DeleteComment(ctx, c.ID)
}
