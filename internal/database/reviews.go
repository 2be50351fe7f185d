// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/critique/internal/models"
)

const reviewSelect = `
	SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
	FROM reviews r JOIN users u ON u.id = r.author_id`

const commentSelect = `
	SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.pub_date
	FROM comments c JOIN users u ON u.id = c.author_id`

func scanReview(row rowScanner) (*models.Review, error) {
	var (
		r   models.Review
		pub string
	)
	if err := row.Scan(&r.ID, &r.TitleID, &r.AuthorID, &r.AuthorUsername, &r.Text, &r.Score, &pub); err != nil {
		return nil, err
	}
	var err error
	if r.PubDate, err = parseTime(pub); err != nil {
		return nil, fmt.Errorf("parse pub_date: %w", err)
	}
	return &r, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c   models.Comment
		pub string
	)
	if err := row.Scan(&c.ID, &c.ReviewID, &c.AuthorID, &c.AuthorUsername, &c.Text, &pub); err != nil {
		return nil, err
	}
	var err error
	if c.PubDate, err = parseTime(pub); err != nil {
		return nil, fmt.Errorf("parse pub_date: %w", err)
	}
	return &c, nil
}

// CreateReview inserts r and sets ID and PubDate. A second review by the
// same author on the same title yields models.ErrConflict.
func (q *Queries) CreateReview(ctx context.Context, r *models.Review) error {
	if r.PubDate.IsZero() {
		r.PubDate = time.Now().UTC()
	}
	res, err := q.exec(ctx, `
		INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES (?, ?, ?, ?, ?)`,
		r.TitleID, r.AuthorID, r.Text, r.Score, formatTime(r.PubDate))
	if err != nil {
		return translate(err, "create review")
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("create review: last insert id: %w", err)
	}
	return nil
}

// GetReview returns a review by id regardless of title.
func (q *Queries) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	r, err := scanReview(q.q.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return nil, translate(err, "get review")
	}
	return r, nil
}

// ListReviews returns the reviews of a title, newest first.
func (q *Queries) ListReviews(ctx context.Context, titleID int64, p models.Page) ([]models.Review, error) {
	page, pageArgs := pageClause(p)
	rows, err := q.q.QueryContext(ctx,
		reviewSelect+` WHERE r.title_id = ? ORDER BY r.pub_date DESC, r.id DESC`+page,
		append([]any{titleID}, pageArgs...)...)
	if err != nil {
		return nil, translate(err, "list reviews")
	}
	defer func() { _ = rows.Close() }()

	out := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, translate(err, "scan review")
		}
		out = append(out, *r)
	}
	return out, translate(rows.Err(), "list reviews")
}

// ReviewsByAuthor returns every review written by a user.
func (q *Queries) ReviewsByAuthor(ctx context.Context, authorID int64) ([]models.Review, error) {
	rows, err := q.q.QueryContext(ctx, reviewSelect+` WHERE r.author_id = ? ORDER BY r.id`, authorID)
	if err != nil {
		return nil, translate(err, "reviews by author")
	}
	defer func() { _ = rows.Close() }()

	var out []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, translate(err, "scan review")
		}
		out = append(out, *r)
	}
	return out, translate(rows.Err(), "reviews by author")
}

// UpdateReview writes text and score. PubDate never changes.
func (q *Queries) UpdateReview(ctx context.Context, r *models.Review) error {
	res, err := q.exec(ctx, `UPDATE reviews SET text = ?, score = ? WHERE id = ?`, r.Text, r.Score, r.ID)
	if err != nil {
		return translate(err, "update review")
	}
	return mustAffect(res, "update review")
}

// DeleteReview removes a review and its comments.
func (q *Queries) DeleteReview(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete review")
	}
	return mustAffect(res, "delete review")
}

// CreateComment inserts c and sets ID and PubDate.
func (q *Queries) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.PubDate.IsZero() {
		c.PubDate = time.Now().UTC()
	}
	res, err := q.exec(ctx, `
		INSERT INTO comments (review_id, author_id, text, pub_date) VALUES (?, ?, ?, ?)`,
		c.ReviewID, c.AuthorID, c.Text, formatTime(c.PubDate))
	if err != nil {
		return translate(err, "create comment")
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("create comment: last insert id: %w", err)
	}
	return nil
}

// GetComment returns a comment by id regardless of review.
func (q *Queries) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(q.q.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, translate(err, "get comment")
	}
	return c, nil
}

// ListComments returns the comments of a review, newest first.
func (q *Queries) ListComments(ctx context.Context, reviewID int64, p models.Page) ([]models.Comment, error) {
	page, pageArgs := pageClause(p)
	rows, err := q.q.QueryContext(ctx,
		commentSelect+` WHERE c.review_id = ? ORDER BY c.pub_date DESC, c.id DESC`+page,
		append([]any{reviewID}, pageArgs...)...)
	if err != nil {
		return nil, translate(err, "list comments")
	}
	defer func() { _ = rows.Close() }()

	out := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, translate(err, "scan comment")
		}
		out = append(out, *c)
	}
	return out, translate(rows.Err(), "list comments")
}

// UpdateComment writes the text.
func (q *Queries) UpdateComment(ctx context.Context, c *models.Comment) error {
	res, err := q.exec(ctx, `UPDATE comments SET text = ? WHERE id = ?`, c.Text, c.ID)
	if err != nil {
		return translate(err, "update comment")
	}
	return mustAffect(res, "update comment")
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete comment")
	}
	return mustAffect(res, "delete comment")
}
