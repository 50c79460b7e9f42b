// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

import "time"

// Author of one or more books.
type Author struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Bio        *string   `json:"bio"`
	BooksCount int       `json:"books_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Genre is a catalog category. A book has at least one.
type Genre struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	BooksCount int       `json:"books_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Rating is one user's 1-10 score of a book, with an optional review.
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Book is the full book record returned by the API. AverageRating is the
// stored ROUND(AVG(rating), 2), or 0 for an unrated book.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	PublicationYear int       `json:"publication_year"`
	AuthorID        int64     `json:"author_id"`
	AverageRating   float64   `json:"average_rating"`
	CreatedAt       time.Time `json:"created_at"`

	Author  *Author  `json:"author,omitempty"`
	Genres  []Genre  `json:"genres"`
	Ratings []Rating `json:"ratings"`
}

// BookFilter selects books for listing. Nil fields do not filter.
type BookFilter struct {
	AuthorID *int64
	GenreID  *int64
	YearFrom *int
	YearTo   *int
	Skip     int
	Limit    int
}
