// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package models

import "time"

// Score bounds for reviews.
const (
	MinScore = 1
	MaxScore = 10
)

// Authored holds the fields shared by every piece of user-written content.
// PubDate is set at creation and never changes.
type Authored struct {
	AuthorID       int64     `json:"-"`
	AuthorUsername string    `json:"author"`
	Text           string    `json:"text"`
	PubDate        time.Time `json:"pub_date"`
}

// Review is one user's scored opinion of a title. A user reviews a title
// at most once.
type Review struct {
	ID      int64 `json:"id"`
	TitleID int64 `json:"-"`
	Authored
	Score int `json:"score"`
}

// Comment is a reply attached to a review.
type Comment struct {
	ID       int64 `json:"id"`
	ReviewID int64 `json:"-"`
	Authored
}

// ReviewInput is the payload for writing a review. Pointers distinguish
// absent fields in partial updates.
type ReviewInput struct {
	Text  *string `json:"text,omitempty"`
	Score *int    `json:"score,omitempty"`
}

// CommentInput is the payload for writing a comment.
type CommentInput struct {
	Text *string `json:"text,omitempty"`
}
