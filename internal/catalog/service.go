// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

// Package catalog manages categories, genres and titles.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

// Store is the catalog persistence. Satisfied by *database.DB.
type Store interface {
	InTx(ctx context.Context, fn func(tx *database.Tx) error) error

	ListCategories(ctx context.Context, f models.TaxonomyFilter) ([]models.Category, error)
	ListGenres(ctx context.Context, f models.TaxonomyFilter) ([]models.Genre, error)
	GetTitle(ctx context.Context, id int64) (*models.Title, error)
	ListTitles(ctx context.Context, f models.TitleFilter) ([]models.Title, error)
}

// Service implements catalog operations. Reads are open to everyone;
// writes need administrative capability.
type Service struct {
	store  Store
	policy *authz.Engine
}

// NewService creates a catalog service.
func NewService(store Store, policy *authz.Engine) *Service {
	return &Service{store: store, policy: policy}
}

// TaxonRequest creates a category or genre.
type TaxonRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// ListCategories lists categories by name.
func (s *Service) ListCategories(ctx context.Context, subject *auth.Subject, f models.TaxonomyFilter) ([]models.Category, error) {
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindCategory)); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, f)
}

// CreateCategory adds a category. A taken slug is a conflict.
func (s *Service) CreateCategory(ctx context.Context, subject *auth.Subject, req TaxonRequest) (*models.Category, error) {
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindCategory)); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	c := &models.Category{Name: req.Name, Slug: req.Slug}
	err := s.store.InTx(ctx, func(tx *database.Tx) error { return tx.CreateCategory(ctx, c) })
	if err != nil {
		return nil, err
	}
	logWrite(ctx, "Category created", c.Slug)
	return c, nil
}

// DeleteCategory removes a category; its titles keep existing without one.
func (s *Service) DeleteCategory(ctx context.Context, subject *auth.Subject, slug string) error {
	if err := s.policy.Authorize(subject, authz.ActionDelete, authz.On(authz.KindCategory)); err != nil {
		return err
	}
	if err := s.store.InTx(ctx, func(tx *database.Tx) error { return tx.DeleteCategory(ctx, slug) }); err != nil {
		return err
	}
	logWrite(ctx, "Category deleted", slug)
	return nil
}

// ListGenres lists genres by name.
func (s *Service) ListGenres(ctx context.Context, subject *auth.Subject, f models.TaxonomyFilter) ([]models.Genre, error) {
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindGenre)); err != nil {
		return nil, err
	}
	return s.store.ListGenres(ctx, f)
}

// CreateGenre adds a genre. A taken slug is a conflict.
func (s *Service) CreateGenre(ctx context.Context, subject *auth.Subject, req TaxonRequest) (*models.Genre, error) {
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindGenre)); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	g := &models.Genre{Name: req.Name, Slug: req.Slug}
	err := s.store.InTx(ctx, func(tx *database.Tx) error { return tx.CreateGenre(ctx, g) })
	if err != nil {
		return nil, err
	}
	logWrite(ctx, "Genre created", g.Slug)
	return g, nil
}

// DeleteGenre removes a genre and its title associations.
func (s *Service) DeleteGenre(ctx context.Context, subject *auth.Subject, slug string) error {
	if err := s.policy.Authorize(subject, authz.ActionDelete, authz.On(authz.KindGenre)); err != nil {
		return err
	}
	if err := s.store.InTx(ctx, func(tx *database.Tx) error { return tx.DeleteGenre(ctx, slug) }); err != nil {
		return err
	}
	logWrite(ctx, "Genre deleted", slug)
	return nil
}

// resolveCategory maps a slug to its row. An unknown slug is bad input
// rather than a missing resource.
func resolveCategory(ctx context.Context, tx *database.Tx, slug string) (*models.Category, error) {
	c, err := tx.GetCategory(ctx, slug)
	if errors.Is(err, models.ErrNotFound) {
		return nil, validation.Invalid("category", fmt.Sprintf("category %q does not exist", slug))
	}
	return c, err
}

func resolveGenres(ctx context.Context, tx *database.Tx, slugs []string) ([]models.Genre, error) {
	out := make([]models.Genre, 0, len(slugs))
	for _, slug := range slugs {
		g, err := tx.GetGenre(ctx, slug)
		if errors.Is(err, models.ErrNotFound) {
			return nil, validation.Invalid("genre", fmt.Sprintf("genre %q does not exist", slug))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, nil
}

func logWrite(ctx context.Context, what, slug string) {
	logging.Ctx(ctx).Info().Str("slug", slug).Msg(what)
}
