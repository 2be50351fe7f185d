// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package catalog

import (
	"context"

	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/models"
	"github.com/tomtom215/critique/internal/validation"
)

// titleRules validates the fields present in a TitleInput.
type titleRules struct {
	Name         *string  `json:"name" validate:"omitnil,min=1,max=256"`
	Year         *int     `json:"year" validate:"omitnil,notfuture"`
	CategorySlug *string  `json:"category" validate:"omitnil,max=50,slug"`
	GenreSlugs   []string `json:"genre" validate:"omitempty,dive,max=50,slug"`
}

func validateTitle(in models.TitleInput, create bool) error {
	if create {
		if in.Name == nil {
			return validation.Invalid("name", "name is required")
		}
		if in.Year == nil {
			return validation.Invalid("year", "year is required")
		}
	}
	return validation.ValidateStruct(titleRules{
		Name:         in.Name,
		Year:         in.Year,
		CategorySlug: in.CategorySlug,
		GenreSlugs:   in.GenreSlugs,
	})
}

// ListTitles lists titles matching f, newest first.
func (s *Service) ListTitles(ctx context.Context, subject *auth.Subject, f models.TitleFilter) ([]models.Title, error) {
	if err := s.policy.Authorize(subject, authz.ActionList, authz.On(authz.KindTitle)); err != nil {
		return nil, err
	}
	return s.store.ListTitles(ctx, f)
}

// GetTitle returns one title.
func (s *Service) GetTitle(ctx context.Context, subject *auth.Subject, id int64) (*models.Title, error) {
	if err := s.policy.Authorize(subject, authz.ActionRetrieve, authz.On(authz.KindTitle)); err != nil {
		return nil, err
	}
	return s.store.GetTitle(ctx, id)
}

// CreateTitle adds a title with an empty rating.
func (s *Service) CreateTitle(ctx context.Context, subject *auth.Subject, in models.TitleInput) (*models.Title, error) {
	if err := s.policy.Authorize(subject, authz.ActionCreate, authz.On(authz.KindTitle)); err != nil {
		return nil, err
	}
	if err := validateTitle(in, true); err != nil {
		return nil, err
	}

	t := &models.Title{Name: *in.Name, Year: *in.Year}
	if in.Description != nil {
		t.Description = *in.Description
	}
	err := s.store.InTx(ctx, func(tx *database.Tx) error {
		if in.CategorySlug != nil {
			c, err := resolveCategory(ctx, tx, *in.CategorySlug)
			if err != nil {
				return err
			}
			t.Category = c
		}
		genres, err := resolveGenres(ctx, tx, in.GenreSlugs)
		if err != nil {
			return err
		}
		t.Genres = genres
		return tx.CreateTitle(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("title_id", t.ID).Str("name", t.Name).Msg("Title created")
	return t, nil
}

// UpdateTitle applies a partial update. GenreSlugs replaces the genre set
// when non-nil; an empty slice clears it.
func (s *Service) UpdateTitle(ctx context.Context, subject *auth.Subject, id int64, in models.TitleInput) (*models.Title, error) {
	if err := s.policy.Authorize(subject, authz.ActionUpdate, authz.On(authz.KindTitle)); err != nil {
		return nil, err
	}
	if err := validateTitle(in, false); err != nil {
		return nil, err
	}

	var out *models.Title
	err := s.store.InTx(ctx, func(tx *database.Tx) error {
		t, err := tx.GetTitle(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			t.Name = *in.Name
		}
		if in.Year != nil {
			t.Year = *in.Year
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		switch {
		case in.ClearCategory:
			t.Category = nil
		case in.CategorySlug != nil:
			if t.Category, err = resolveCategory(ctx, tx, *in.CategorySlug); err != nil {
				return err
			}
		}
		if err := tx.UpdateTitle(ctx, t); err != nil {
			return err
		}
		if in.GenreSlugs != nil {
			if t.Genres, err = resolveGenres(ctx, tx, in.GenreSlugs); err != nil {
				return err
			}
			if err := tx.SetTitleGenres(ctx, t.ID, t.Genres); err != nil {
				return err
			}
		}
		// Re-read so the response carries canonical genre order.
		out, err = tx.GetTitle(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTitle removes a title with its reviews and comments.
func (s *Service) DeleteTitle(ctx context.Context, subject *auth.Subject, id int64) error {
	if err := s.policy.Authorize(subject, authz.ActionDelete, authz.On(authz.KindTitle)); err != nil {
		return err
	}
	if err := s.store.InTx(ctx, func(tx *database.Tx) error { return tx.DeleteTitle(ctx, id) }); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Int64("title_id", id).Msg("Title deleted")
	return nil
}
