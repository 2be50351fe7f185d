// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package models

// Category groups titles by kind of work (film, book, music, ...).
type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Genre is a free classification; a title may carry several.
type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Title is a reviewable work.
//
// Rating, ReviewCount and Version are owned by the rating aggregator and
// are never written by catalog operations.
type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Description string    `json:"description"`
	Category    *Category `json:"category"`
	Genres      []Genre   `json:"genre"`
	Rating      *float64  `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Version     int64     `json:"-"`
}

// Aggregate returns the derived rating state of the title.
func (t *Title) Aggregate() Aggregate {
	return Aggregate{Rating: t.Rating, ReviewCount: t.ReviewCount, Version: t.Version}
}

// TitleInput is the payload for creating a title or patching one. For
// creation Name and Year are required.
type TitleInput struct {
	Name         *string  `json:"name,omitempty"`
	Year         *int     `json:"year,omitempty"`
	Description  *string  `json:"description,omitempty"`
	CategorySlug *string  `json:"category,omitempty"`
	GenreSlugs   []string `json:"genre,omitempty"`
	// ClearCategory detaches the title from its category.
	ClearCategory bool `json:"-"`
}

// TitleFilter narrows title listings. Zero values do not filter.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
	Page         Page
}

// TaxonomyFilter narrows category and genre listings.
type TaxonomyFilter struct {
	Search string
	Page   Page
}

// Page is an offset pagination window.
type Page struct {
	Limit  int
	Offset int
}

// Aggregate is the derived rating state of one title.
// Rating is nil if and only if ReviewCount is zero.
type Aggregate struct {
	Rating      *float64
	ReviewCount int
	Version     int64
}
