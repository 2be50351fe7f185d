// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/models"
)

func ptr[T any](v T) *T { return &v }

var (
	admin = auth.NewSubject(&models.User{ID: 1, Username: "root", Role: models.RoleAdmin})
	staff = auth.NewSubject(&models.User{ID: 2, Username: "ops", Role: models.RoleUser, Staff: true})
	mod   = auth.NewSubject(&models.User{ID: 3, Username: "mod", Role: models.RoleModerator})
	user  = auth.NewSubject(&models.User{ID: 4, Username: "pat", Role: models.RoleUser})
)

func setupCatalog(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "catalog.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 2,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	policy, err := authz.NewEngine(config.CasbinConfig{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(policy.Close)
	return NewService(db, policy)
}

func seedTaxonomy(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []TaxonRequest{{"Film", "film"}, {"Book", "book"}} {
		if _, err := s.CreateCategory(ctx, admin, c); err != nil {
			t.Fatalf("CreateCategory(%s) error = %v", c.Slug, err)
		}
	}
	for _, g := range []TaxonRequest{{"Drama", "drama"}, {"Sci-Fi", "sci-fi"}} {
		if _, err := s.CreateGenre(ctx, admin, g); err != nil {
			t.Fatalf("CreateGenre(%s) error = %v", g.Slug, err)
		}
	}
}

func TestTaxonomy(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)

	cats, err := s.ListCategories(ctx, auth.Anonymous(), models.TaxonomyFilter{})
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("ListCategories() = %d items, want 2", len(cats))
	}

	genres, err := s.ListGenres(ctx, auth.Anonymous(), models.TaxonomyFilter{Search: "dra"})
	if err != nil {
		t.Fatalf("ListGenres() error = %v", err)
	}
	if len(genres) != 1 || genres[0].Slug != "drama" {
		t.Errorf("ListGenres(search=dra) = %v", genres)
	}

	if _, err := s.CreateCategory(ctx, admin, TaxonRequest{Name: "Films", Slug: "film"}); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate slug error = %v, want ErrConflict", err)
	}
	if err := s.DeleteGenre(ctx, staff, "drama"); err != nil {
		t.Errorf("DeleteGenre(staff) error = %v", err)
	}
	if err := s.DeleteGenre(ctx, admin, "drama"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("DeleteGenre(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTaxonomy_Access(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		subject *auth.Subject
		req     TaxonRequest
		want    error
	}{
		{"anonymous", auth.Anonymous(), TaxonRequest{"Film", "film"}, models.ErrUnauthenticated},
		{"user", user, TaxonRequest{"Film", "film"}, models.ErrForbidden},
		{"moderator", mod, TaxonRequest{"Film", "film"}, models.ErrForbidden},
		{"bad slug", admin, TaxonRequest{"Film", "fi lm"}, models.ErrInvalidInput},
		{"missing name", admin, TaxonRequest{Slug: "film"}, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateCategory(ctx, tt.subject, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("CreateCategory() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateTitle(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)

	title, err := s.CreateTitle(ctx, admin, models.TitleInput{
		Name:         ptr("Solaris"),
		Year:         ptr(1972),
		Description:  ptr("A psychologist visits a space station."),
		CategorySlug: ptr("film"),
		GenreSlugs:   []string{"sci-fi", "drama"},
	})
	if err != nil {
		t.Fatalf("CreateTitle() error = %v", err)
	}
	if title.Rating != nil || title.ReviewCount != 0 {
		t.Errorf("new title aggregate = (%v, %d), want (nil, 0)", title.Rating, title.ReviewCount)
	}

	got, err := s.GetTitle(ctx, auth.Anonymous(), title.ID)
	if err != nil {
		t.Fatalf("GetTitle() error = %v", err)
	}
	if got.Category == nil || got.Category.Slug != "film" {
		t.Errorf("Category = %v, want film", got.Category)
	}
	if len(got.Genres) != 2 {
		t.Errorf("Genres = %v, want 2", got.Genres)
	}
}

func TestCreateTitle_Validation(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)
	nextYear := time.Now().Year() + 1

	tests := []struct {
		name string
		in   models.TitleInput
		want error
	}{
		{"missing name", models.TitleInput{Year: ptr(2000)}, models.ErrInvalidInput},
		{"missing year", models.TitleInput{Name: ptr("X")}, models.ErrInvalidInput},
		{"empty name", models.TitleInput{Name: ptr(""), Year: ptr(2000)}, models.ErrInvalidInput},
		{"future year", models.TitleInput{Name: ptr("X"), Year: ptr(nextYear)}, models.ErrInvalidInput},
		{"unknown category", models.TitleInput{Name: ptr("X"), Year: ptr(2000), CategorySlug: ptr("opera")}, models.ErrInvalidInput},
		{"unknown genre", models.TitleInput{Name: ptr("X"), Year: ptr(2000), GenreSlugs: []string{"drama", "noir"}}, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateTitle(ctx, admin, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("CreateTitle() error = %v, want %v", err, tt.want)
			}
		})
	}

	titles, err := s.ListTitles(ctx, auth.Anonymous(), models.TitleFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 0 {
		t.Errorf("ListTitles() = %d, want 0 after rejected creates", len(titles))
	}
}

func TestUpdateTitle(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)

	title, err := s.CreateTitle(ctx, admin, models.TitleInput{
		Name: ptr("Dune"), Year: ptr(1965), CategorySlug: ptr("book"), GenreSlugs: []string{"sci-fi"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.UpdateTitle(ctx, admin, title.ID, models.TitleInput{Name: ptr("Dune (novel)")})
	if err != nil {
		t.Fatalf("UpdateTitle(name) error = %v", err)
	}
	if got.Name != "Dune (novel)" || got.Year != 1965 || got.Category == nil || len(got.Genres) != 1 {
		t.Errorf("partial update clobbered fields: %+v", got)
	}

	got, err = s.UpdateTitle(ctx, admin, title.ID, models.TitleInput{ClearCategory: true, GenreSlugs: []string{}})
	if err != nil {
		t.Fatalf("UpdateTitle(clear) error = %v", err)
	}
	if got.Category != nil || len(got.Genres) != 0 {
		t.Errorf("clear update = %+v, want no category or genres", got)
	}

	if _, err := s.UpdateTitle(ctx, admin, 9999, models.TitleInput{Name: ptr("x")}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("UpdateTitle(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateTitle(ctx, user, title.ID, models.TitleInput{Name: ptr("x")}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("UpdateTitle(user) error = %v, want ErrForbidden", err)
	}
}

func TestListTitles_Filters(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)

	for _, in := range []models.TitleInput{
		{Name: ptr("Solaris"), Year: ptr(1972), CategorySlug: ptr("film"), GenreSlugs: []string{"sci-fi"}},
		{Name: ptr("Stalker"), Year: ptr(1979), CategorySlug: ptr("film"), GenreSlugs: []string{"drama"}},
		{Name: ptr("Solaris"), Year: ptr(1961), CategorySlug: ptr("book"), GenreSlugs: []string{"sci-fi"}},
	} {
		if _, err := s.CreateTitle(ctx, admin, in); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter models.TitleFilter
		want   int
	}{
		{"all", models.TitleFilter{}, 3},
		{"category", models.TitleFilter{CategorySlug: "film"}, 2},
		{"genre", models.TitleFilter{GenreSlug: "sci-fi"}, 2},
		{"name", models.TitleFilter{Name: "sol"}, 2},
		{"year", models.TitleFilter{Year: 1979}, 1},
		{"combined", models.TitleFilter{CategorySlug: "book", GenreSlug: "sci-fi"}, 1},
		{"page", models.TitleFilter{Page: models.Page{Limit: 2}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTitles(ctx, auth.Anonymous(), tt.filter)
			if err != nil {
				t.Fatalf("ListTitles() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListTitles() = %d titles, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDeleteCategory_DetachesTitles(t *testing.T) {
	s := setupCatalog(t)
	ctx := context.Background()
	seedTaxonomy(t, s)

	title, err := s.CreateTitle(ctx, admin, models.TitleInput{Name: ptr("Mirror"), Year: ptr(1975), CategorySlug: ptr("film")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, admin, "film"); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	got, err := s.GetTitle(ctx, auth.Anonymous(), title.ID)
	if err != nil {
		t.Fatalf("title removed with its category: %v", err)
	}
	if got.Category != nil {
		t.Errorf("Category = %v, want nil", got.Category)
	}

	if err := s.DeleteTitle(ctx, admin, title.ID); err != nil {
		t.Fatalf("DeleteTitle() error = %v", err)
	}
	if _, err := s.GetTitle(ctx, auth.Anonymous(), title.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("GetTitle(deleted) error = %v, want ErrNotFound", err)
	}
}
