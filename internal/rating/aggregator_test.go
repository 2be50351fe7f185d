// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package rating

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/models"
)

func setupAggregator(t *testing.T) (*Aggregator, *database.DB) {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "rating.db"),
		BusyTimeout:  10 * time.Second,
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	a := NewAggregator(db, config.RatingConfig{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	})
	return a, db
}

func createTitle(t *testing.T, db *database.DB) int64 {
	t.Helper()
	title := &models.Title{Name: "Andrei Rublev", Year: 1966}
	if err := db.CreateTitle(context.Background(), title); err != nil {
		t.Fatalf("CreateTitle() error = %v", err)
	}
	return title.ID
}

func createUsers(t *testing.T, db *database.DB, n int) []int64 {
	t.Helper()
	ids := make([]int64, n)
	for i := range ids {
		u := &models.User{Username: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("user%d@example.com", i)}
		if err := db.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
		ids[i] = u.ID
	}
	return ids
}

func review(titleID, authorID int64, score int) *models.Review {
	return &models.Review{
		TitleID:  titleID,
		Authored: models.Authored{AuthorID: authorID, Text: "review text"},
		Score:    score,
	}
}

func assertStored(t *testing.T, db *database.DB, titleID int64, wantRating *float64, wantCount int) {
	t.Helper()
	got, err := db.LoadAggregate(context.Background(), titleID)
	if err != nil {
		t.Fatalf("LoadAggregate() error = %v", err)
	}
	if got.ReviewCount != wantCount {
		t.Errorf("stored ReviewCount = %d, want %d", got.ReviewCount, wantCount)
	}
	switch {
	case wantRating == nil && got.Rating != nil:
		t.Errorf("stored Rating = %v, want nil", *got.Rating)
	case wantRating != nil && got.Rating == nil:
		t.Errorf("stored Rating = nil, want %v", *wantRating)
	case wantRating != nil && !Within(*got.Rating, *wantRating):
		t.Errorf("stored Rating = %v, want %v", *got.Rating, *wantRating)
	}
}

func TestAggregator_CreatesMatchMean(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	scores := []int{10, 3, 7, 7, 1, 9, 4}
	users := createUsers(t, db, len(scores))

	for i, s := range scores {
		if _, err := a.CreateReview(ctx, review(titleID, users[i], s)); err != nil {
			t.Fatalf("CreateReview(%d) error = %v", s, err)
		}
	}

	assertStored(t, db, titleID, Mean(scores).Rating, len(scores))
}

func TestAggregator_UpdateAndDelete(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 2)

	r1 := review(titleID, users[0], 4)
	if _, err := a.CreateReview(ctx, r1); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	r2 := review(titleID, users[1], 8)
	if _, err := a.CreateReview(ctx, r2); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	// The old contribution is removed and the new one added.
	ten := 10
	_, got, err := a.UpdateReview(ctx, titleID, r1.ID, models.ReviewInput{Score: &ten})
	if err != nil {
		t.Fatalf("UpdateReview() error = %v", err)
	}
	if got.ReviewCount != 2 || !Within(*got.Rating, 9) {
		t.Errorf("after update = %v/%d, want 9/2", *got.Rating, got.ReviewCount)
	}

	if _, err := a.DeleteReview(ctx, titleID, r2.ID); err != nil {
		t.Fatalf("DeleteReview() error = %v", err)
	}
	assertStored(t, db, titleID, ptr(10), 1)

	if _, err := a.DeleteReview(ctx, titleID, r1.ID); err != nil {
		t.Fatalf("DeleteReview(last) error = %v", err)
	}
	assertStored(t, db, titleID, nil, 0)
}

func TestAggregator_UpdateSameScoreKeepsVersion(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 1)

	r := review(titleID, users[0], 6)
	created, err := a.CreateReview(ctx, r)
	if err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	text := "edited text only"
	written, got, err := a.UpdateReview(ctx, titleID, r.ID, models.ReviewInput{Text: &text})
	if err != nil {
		t.Fatalf("UpdateReview() error = %v", err)
	}
	if written.Text != text || written.Score != 6 {
		t.Errorf("UpdateReview() review = %q/%d, want %q/6", written.Text, written.Score, text)
	}
	if got.Version != created.Version {
		t.Errorf("Version = %d, want unchanged %d", got.Version, created.Version)
	}
	stored, err := db.GetReview(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if stored.Text != "edited text only" {
		t.Errorf("Text = %q, want edited", stored.Text)
	}
}

func TestAggregator_DuplicateReviewLeavesAggregate(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 1)

	if _, err := a.CreateReview(ctx, review(titleID, users[0], 5)); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	_, err := a.CreateReview(ctx, review(titleID, users[0], 1))
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("second CreateReview() error = %v, want ErrConflict", err)
	}
	assertStored(t, db, titleID, ptr(5), 1)
}

func TestAggregator_ConcurrentCreates(t *testing.T) {
	a, db := setupAggregator(t)
	a.cfg.MaxAttempts = 50
	ctx := context.Background()
	titleID := createTitle(t, db)

	const n, score = 50, 6
	users := createUsers(t, db, n)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(author int64) {
			defer wg.Done()
			if _, err := a.CreateReview(ctx, review(titleID, author, score)); err != nil {
				errs <- err
			}
		}(users[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent CreateReview() error = %v", err)
	}

	assertStored(t, db, titleID, ptr(score), n)
}

func TestAggregator_RetriesLostSwap(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 1)

	var sleeps []time.Duration
	a.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	attempts := 0
	r := review(titleID, users[0], 8)
	got, err := a.Apply(ctx, titleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		attempts++
		if attempts == 1 {
			// A concurrent writer moves the version after we loaded it.
			if err := tx.BumpAggregateVersion(ctx, titleID); err != nil {
				return Delta{}, err
			}
		}
		r.ID = 0
		if err := tx.CreateReview(ctx, r); err != nil {
			return Delta{}, err
		}
		return Delta{Kind: Created, Score: r.Score}, nil
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(sleeps) != 1 || sleeps[0] != time.Millisecond {
		t.Errorf("sleeps = %v, want one initial backoff", sleeps)
	}
	if got.ReviewCount != 1 || *got.Rating != 8 {
		t.Errorf("Apply() = %v/%d, want 8/1", *got.Rating, got.ReviewCount)
	}
	assertStored(t, db, titleID, ptr(8), 1)

	reviews, err := db.ListReviews(ctx, titleID, models.Page{})
	if err != nil {
		t.Fatalf("ListReviews() error = %v", err)
	}
	if len(reviews) != 1 {
		t.Errorf("stored reviews = %d, want 1 (first attempt rolled back)", len(reviews))
	}
}

func TestAggregator_ContentionExhaustion(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)

	var sleeps []time.Duration
	a.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	attempts := 0
	_, err := a.Apply(ctx, titleID, func(ctx context.Context, tx *database.Tx) (Delta, error) {
		attempts++
		if err := tx.BumpAggregateVersion(ctx, titleID); err != nil {
			return Delta{}, err
		}
		return Delta{Kind: Replace, Target: Mean([]int{5})}, nil
	})
	if !errors.Is(err, models.ErrAggregateContention) {
		t.Fatalf("Apply() error = %v, want ErrAggregateContention", err)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
	want := []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond}
	if fmt.Sprint(sleeps) != fmt.Sprint(want) {
		t.Errorf("sleeps = %v, want %v", sleeps, want)
	}
	assertStored(t, db, titleID, nil, 0)
}

func TestAggregator_InvariantViolationAborts(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)

	attempts := 0
	_, err := a.Apply(ctx, titleID, func(context.Context, *database.Tx) (Delta, error) {
		attempts++
		return Delta{Kind: Deleted, Score: 5}, nil
	})
	if !errors.Is(err, models.ErrInvariantViolation) {
		t.Fatalf("Apply() error = %v, want ErrInvariantViolation", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry)", attempts)
	}
}

func TestAggregator_ReconcileAndRemoveAuthor(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	t1, t2 := createTitle(t, db), createTitle(t, db)
	users := createUsers(t, db, 2)

	for _, r := range []*models.Review{
		review(t1, users[0], 2), review(t1, users[1], 6),
		review(t2, users[0], 9),
	} {
		if _, err := a.CreateReview(ctx, r); err != nil {
			t.Fatalf("CreateReview() error = %v", err)
		}
	}

	got, err := a.Reconcile(ctx, t1)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got.ReviewCount != 2 || *got.Rating != 4 {
		t.Errorf("Reconcile() = %v/%d, want 4/2", *got.Rating, got.ReviewCount)
	}

	removed, err := a.RemoveAuthor(ctx, users[0])
	if err != nil {
		t.Fatalf("RemoveAuthor() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	assertStored(t, db, t1, ptr(6), 1)
	assertStored(t, db, t2, nil, 0)
	if _, err := db.GetUserByID(ctx, users[0]); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetUserByID(removed) error = %v, want ErrNotFound", err)
	}
}

func TestAggregator_RemoveAuthorRejectsLaterReviews(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 2)

	if _, err := a.CreateReview(ctx, review(titleID, users[1], 8)); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	if _, err := a.RemoveAuthor(ctx, users[0]); err != nil {
		t.Fatalf("RemoveAuthor() error = %v", err)
	}

	// A write that lands after the removal cannot resurrect the author.
	if _, err := a.CreateReview(ctx, review(titleID, users[0], 2)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("CreateReview(removed author) error = %v, want ErrNotFound", err)
	}
	assertStored(t, db, titleID, ptr(8), 1)

	if _, err := a.RemoveAuthor(ctx, users[0]); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("RemoveAuthor(twice) error = %v, want ErrNotFound", err)
	}
}

func TestAggregator_ConcurrentEditsKeepBothFields(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	titleID := createTitle(t, db)
	users := createUsers(t, db, 1)

	r := review(titleID, users[0], 5)
	if _, err := a.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}

	text, score := "moderated text", 9
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, in := range []models.ReviewInput{{Text: &text}, {Score: &score}} {
		wg.Add(1)
		go func(in models.ReviewInput) {
			defer wg.Done()
			_, _, err := a.UpdateReview(ctx, titleID, r.ID, in)
			errs <- err
		}(in)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateReview() error = %v", err)
		}
	}

	stored, err := db.GetReview(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if stored.Text != text || stored.Score != score {
		t.Errorf("stored review = %q/%d, want %q/%d", stored.Text, stored.Score, text, score)
	}
	assertStored(t, db, titleID, ptr(9), 1)
}

func TestAggregator_DeleteReviewOnOtherTitle(t *testing.T) {
	a, db := setupAggregator(t)
	ctx := context.Background()
	t1, t2 := createTitle(t, db), createTitle(t, db)
	users := createUsers(t, db, 1)

	r := review(t1, users[0], 7)
	if _, err := a.CreateReview(ctx, r); err != nil {
		t.Fatalf("CreateReview() error = %v", err)
	}
	if _, err := a.DeleteReview(ctx, t2, r.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("DeleteReview(wrong title) error = %v, want ErrNotFound", err)
	}
	assertStored(t, db, t1, ptr(7), 1)
}
