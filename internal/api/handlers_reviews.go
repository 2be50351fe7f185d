// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package api

import (
	"net/http"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/models"
)

// ListReviews handles GET /titles/{title_id}/reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	titleID, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := h.page(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	list, err := h.reviews.ListReviews(r.Context(), auth.GetSubject(r.Context()), titleID, p)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, list, p)
}

// CreateReview handles POST /titles/{title_id}/reviews.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	titleID, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	rev, err := h.reviews.CreateReview(r.Context(), auth.GetSubject(r.Context()), titleID, in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, rev)
}

// GetReview handles GET /titles/{title_id}/reviews/{review_id}.
func (h *Handler) GetReview(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	rev, err := h.reviews.GetReview(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, rev)
}

// UpdateReview handles PATCH /titles/{title_id}/reviews/{review_id}.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	rev, err := h.reviews.UpdateReview(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, rev)
}

// DeleteReview handles DELETE /titles/{title_id}/reviews/{review_id}.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := h.reviews.DeleteReview(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1]); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}

// ReconcileRating handles POST /titles/{title_id}/rating/reconcile.
func (h *Handler) ReconcileRating(w http.ResponseWriter, r *http.Request) {
	titleID, err := pathID(r, "title_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	agg, err := h.reviews.Reconcile(r.Context(), auth.GetSubject(r.Context()), titleID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, presentAggregate(agg))
}

// ListComments handles GET .../reviews/{review_id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	p, err := h.page(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	list, err := h.reviews.ListComments(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], p)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondList(w, r, list, p)
}

// CreateComment handles POST .../reviews/{review_id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var in models.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	c, err := h.reviews.CreateComment(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusCreated, c)
}

// GetComment handles GET .../comments/{comment_id}.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id", "comment_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	c, err := h.reviews.GetComment(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], ids[2])
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, c)
}

// UpdateComment handles PATCH .../comments/{comment_id}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id", "comment_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var in models.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, r, err)
		return
	}
	c, err := h.reviews.UpdateComment(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], ids[2], in)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, c)
}

// DeleteComment handles DELETE .../comments/{comment_id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ids, err := pathIDs(r, "title_id", "review_id", "comment_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := h.reviews.DeleteComment(r.Context(), auth.GetSubject(r.Context()), ids[0], ids[1], ids[2]); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondNoContent(w)
}
