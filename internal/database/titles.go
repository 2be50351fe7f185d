// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/critique/internal/models"
)

const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.rating, t.review_count, t.version,
		c.id, c.name, c.slug
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTitle(row rowScanner) (*models.Title, error) {
	var (
		t       models.Title
		rating  sql.NullFloat64
		catID   sql.NullInt64
		catName sql.NullString
		catSlug sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Year, &t.Description, &rating, &t.ReviewCount, &t.Version,
		&catID, &catName, &catSlug); err != nil {
		return nil, err
	}
	if rating.Valid {
		r := rating.Float64
		t.Rating = &r
	}
	if catID.Valid {
		t.Category = &models.Category{ID: catID.Int64, Name: catName.String, Slug: catSlug.String}
	}
	t.Genres = []models.Genre{}
	return &t, nil
}

// CreateTitle inserts t with an empty aggregate. t.Category and t.Genres
// must reference existing rows by ID.
func (q *Queries) CreateTitle(ctx context.Context, t *models.Title) error {
	res, err := q.exec(ctx, `
		INSERT INTO titles (name, year, description, category_id, rating, review_count, version)
		VALUES (?, ?, ?, ?, NULL, 0, 0)`,
		t.Name, t.Year, t.Description, categoryID(t.Category))
	if err != nil {
		return translate(err, "create title")
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("create title: last insert id: %w", err)
	}
	t.Rating, t.ReviewCount, t.Version = nil, 0, 0
	return q.SetTitleGenres(ctx, t.ID, t.Genres)
}

// GetTitle returns a title with its category and genres.
func (q *Queries) GetTitle(ctx context.Context, id int64) (*models.Title, error) {
	t, err := scanTitle(q.q.QueryRowContext(ctx, titleSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, translate(err, "get title")
	}
	if t.Genres, err = q.titleGenres(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTitles returns titles matching f, newest id first.
func (q *Queries) ListTitles(ctx context.Context, f models.TitleFilter) ([]models.Title, error) {
	var (
		where []string
		args  []any
	)
	if f.CategorySlug != "" {
		where = append(where, `c.slug = ?`)
		args = append(args, f.CategorySlug)
	}
	if f.GenreSlug != "" {
		where = append(where, `EXISTS (SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = ?)`)
		args = append(args, f.GenreSlug)
	}
	if s := strings.TrimSpace(f.Name); s != "" {
		where = append(where, `t.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(s)+"%")
	}
	if f.Year != 0 {
		where = append(where, `t.year = ?`)
		args = append(args, f.Year)
	}

	query := titleSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY t.id DESC`
	page, pageArgs := pageClause(f.Page)
	query += page
	args = append(args, pageArgs...)

	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list titles")
	}
	var out []models.Title
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, translate(err, "scan title")
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, translate(err, "list titles")
	}
	_ = rows.Close()

	// Genres are loaded after the cursor is closed; a pooled connection
	// may be the only one available.
	for i := range out {
		if out[i].Genres, err = q.titleGenres(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListTitleIDs returns every title id in ascending order.
func (q *Queries) ListTitleIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT id FROM titles ORDER BY id`)
	if err != nil {
		return nil, translate(err, "list title ids")
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err, "scan title id")
		}
		ids = append(ids, id)
	}
	return ids, translate(rows.Err(), "list title ids")
}

func (q *Queries) titleGenres(ctx context.Context, titleID int64) ([]models.Genre, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT g.id, g.name, g.slug FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = ? ORDER BY g.name, g.id`, titleID)
	if err != nil {
		return nil, translate(err, "title genres")
	}
	defer func() { _ = rows.Close() }()

	out := []models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, translate(err, "scan genre")
		}
		out = append(out, g)
	}
	return out, translate(rows.Err(), "title genres")
}

// UpdateTitle writes name, year, description and category. Aggregate
// columns are untouched.
func (q *Queries) UpdateTitle(ctx context.Context, t *models.Title) error {
	res, err := q.exec(ctx, `
		UPDATE titles SET name = ?, year = ?, description = ?, category_id = ? WHERE id = ?`,
		t.Name, t.Year, t.Description, categoryID(t.Category), t.ID)
	if err != nil {
		return translate(err, "update title")
	}
	return mustAffect(res, "update title")
}

// SetTitleGenres replaces the genre set of a title.
func (q *Queries) SetTitleGenres(ctx context.Context, titleID int64, genres []models.Genre) error {
	if _, err := q.exec(ctx, `DELETE FROM title_genres WHERE title_id = ?`, titleID); err != nil {
		return translate(err, "clear title genres")
	}
	for _, g := range genres {
		if _, err := q.exec(ctx, `INSERT OR IGNORE INTO title_genres (title_id, genre_id) VALUES (?, ?)`,
			titleID, g.ID); err != nil {
			return translate(err, "add title genre")
		}
	}
	return nil
}

// DeleteTitle removes a title with its reviews and comments.
func (q *Queries) DeleteTitle(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM titles WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete title")
	}
	return mustAffect(res, "delete title")
}

// LoadAggregate reads the rating state and version of a title.
func (q *Queries) LoadAggregate(ctx context.Context, titleID int64) (models.Aggregate, error) {
	var (
		agg    models.Aggregate
		rating sql.NullFloat64
	)
	err := q.q.QueryRowContext(ctx, `SELECT rating, review_count, version FROM titles WHERE id = ?`, titleID).
		Scan(&rating, &agg.ReviewCount, &agg.Version)
	if err != nil {
		return models.Aggregate{}, translate(err, "load aggregate")
	}
	if rating.Valid {
		r := rating.Float64
		agg.Rating = &r
	}
	return agg, nil
}

// SwapAggregate writes next only if the stored version still equals
// prevVersion, bumping the version. It reports whether the swap happened.
func (q *Queries) SwapAggregate(ctx context.Context, titleID, prevVersion int64, next models.Aggregate) (bool, error) {
	var rating sql.NullFloat64
	if next.Rating != nil {
		rating = sql.NullFloat64{Float64: *next.Rating, Valid: true}
	}
	res, err := q.exec(ctx, `
		UPDATE titles SET rating = ?, review_count = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		rating, next.ReviewCount, titleID, prevVersion)
	if err != nil {
		return false, translate(err, "swap aggregate")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap aggregate: rows affected: %w", err)
	}
	return n == 1, nil
}

// BumpAggregateVersion advances the version without changing the
// aggregate, invalidating any in-flight compare-and-swap.
func (q *Queries) BumpAggregateVersion(ctx context.Context, titleID int64) error {
	res, err := q.exec(ctx, `UPDATE titles SET version = version + 1 WHERE id = ?`, titleID)
	if err != nil {
		return translate(err, "bump aggregate version")
	}
	return mustAffect(res, "bump aggregate version")
}

// ReviewScores returns every stored score of a title.
func (q *Queries) ReviewScores(ctx context.Context, titleID int64) ([]int, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT score FROM reviews WHERE title_id = ? ORDER BY id`, titleID)
	if err != nil {
		return nil, translate(err, "review scores")
	}
	defer func() { _ = rows.Close() }()

	var scores []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, translate(err, "scan score")
		}
		scores = append(scores, s)
	}
	return scores, translate(rows.Err(), "review scores")
}

func categoryID(c *models.Category) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: c.ID, Valid: true}
}
