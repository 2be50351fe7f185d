// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/critique/internal/models"
)

// Categories and genres share one shape; the table name is a package
// constant, never caller input.
const (
	tableCategories = "categories"
	tableGenres     = "genres"
)

type taxon struct {
	ID   int64
	Name string
	Slug string
}

func (q *Queries) createTaxon(ctx context.Context, table, name, slug string) (int64, error) {
	res, err := q.exec(ctx, `INSERT INTO `+table+` (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return 0, translate(err, "create "+table)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create %s: last insert id: %w", table, err)
	}
	return id, nil
}

func (q *Queries) getTaxon(ctx context.Context, table, slug string) (taxon, error) {
	var t taxon
	err := q.q.QueryRowContext(ctx, `SELECT id, name, slug FROM `+table+` WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return taxon{}, translate(err, "get "+table)
	}
	return t, nil
}

func (q *Queries) listTaxa(ctx context.Context, table string, f models.TaxonomyFilter) ([]taxon, error) {
	query := `SELECT id, name, slug FROM ` + table
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(s)+"%")
	}
	query += ` ORDER BY name, id`
	page, pageArgs := pageClause(f.Page)
	query += page
	args = append(args, pageArgs...)

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list "+table)
	}
	defer func() { _ = rows.Close() }()

	var out []taxon
	for rows.Next() {
		var t taxon
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, translate(err, "scan "+table)
		}
		out = append(out, t)
	}
	return out, translate(rows.Err(), "list "+table)
}

func (q *Queries) deleteTaxon(ctx context.Context, table, slug string) error {
	res, err := q.exec(ctx, `DELETE FROM `+table+` WHERE slug = ?`, slug)
	if err != nil {
		return translate(err, "delete "+table)
	}
	return mustAffect(res, "delete "+table)
}

// CreateCategory inserts c and sets its ID.
func (q *Queries) CreateCategory(ctx context.Context, c *models.Category) error {
	id, err := q.createTaxon(ctx, tableCategories, c.Name, c.Slug)
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

// GetCategory looks a category up by slug.
func (q *Queries) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	t, err := q.getTaxon(ctx, tableCategories, slug)
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: t.ID, Name: t.Name, Slug: t.Slug}, nil
}

// ListCategories returns categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, f models.TaxonomyFilter) ([]models.Category, error) {
	taxa, err := q.listTaxa(ctx, tableCategories, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, len(taxa))
	for i, t := range taxa {
		out[i] = models.Category{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	return out, nil
}

// DeleteCategory removes a category; its titles keep existing without one.
func (q *Queries) DeleteCategory(ctx context.Context, slug string) error {
	return q.deleteTaxon(ctx, tableCategories, slug)
}

// CreateGenre inserts g and sets its ID.
func (q *Queries) CreateGenre(ctx context.Context, g *models.Genre) error {
	id, err := q.createTaxon(ctx, tableGenres, g.Name, g.Slug)
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// GetGenre looks a genre up by slug.
func (q *Queries) GetGenre(ctx context.Context, slug string) (*models.Genre, error) {
	t, err := q.getTaxon(ctx, tableGenres, slug)
	if err != nil {
		return nil, err
	}
	return &models.Genre{ID: t.ID, Name: t.Name, Slug: t.Slug}, nil
}

// ListGenres returns genres ordered by name.
func (q *Queries) ListGenres(ctx context.Context, f models.TaxonomyFilter) ([]models.Genre, error) {
	taxa, err := q.listTaxa(ctx, tableGenres, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.Genre, len(taxa))
	for i, t := range taxa {
		out[i] = models.Genre{ID: t.ID, Name: t.Name, Slug: t.Slug}
	}
	return out, nil
}

// DeleteGenre removes a genre and its title associations.
func (q *Queries) DeleteGenre(ctx context.Context, slug string) error {
	return q.deleteTaxon(ctx, tableGenres, slug)
}
