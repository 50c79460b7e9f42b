// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/database/query"
	"github.com/tomtom215/bookshelf/internal/models"
)

// loadBooks runs bookSelect with the given suffix and attaches each book's
// author, genres and ratings with one query per relation.
func loadBooks(ctx context.Context, q queryer, suffix string, args ...interface{}) ([]models.Book, error) {
	rows, err := q.QueryContext(ctx, bookSelect+` `+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer closeWithLog(rows, "rows")

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorID, &b.AverageRating, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.Genres = []models.Genre{}
		b.Ratings = []models.Rating{}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return books, nil
	}

	if err := hydrateBooks(ctx, q, books); err != nil {
		return nil, err
	}
	return books, nil
}

func hydrateBooks(ctx context.Context, q queryer, books []models.Book) error {
	bookIDs := make([]int64, len(books))
	authorIDs := make([]int64, 0, len(books))
	index := make(map[int64]int, len(books))
	for i, b := range books {
		bookIDs[i] = b.ID
		authorIDs = append(authorIDs, b.AuthorID)
		index[b.ID] = i
	}

	authors, err := authorsByID(ctx, q, uniqueIDs(authorIDs))
	if err != nil {
		return err
	}
	for i := range books {
		if a, ok := authors[books[i].AuthorID]; ok {
			a := a
			books[i].Author = &a
		}
	}

	genres, err := genresByBook(ctx, q, bookIDs)
	if err != nil {
		return err
	}
	for bookID, gs := range genres {
		books[index[bookID]].Genres = gs
	}

	ratings, err := ratingsByBook(ctx, q, bookIDs)
	if err != nil {
		return err
	}
	for bookID, rs := range ratings {
		books[index[bookID]].Ratings = rs
	}
	return nil
}

func authorsByID(ctx context.Context, q queryer, ids []int64) (map[int64]models.Author, error) {
	where, args := query.NewWhereBuilder().AddIn("a.id", ids).BuildWithPrefix()
	rows, err := q.QueryContext(ctx, authorSelect+` `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make(map[int64]models.Author, len(ids))
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		out[a.ID] = *a
	}
	return out, rows.Err()
}

func genresByBook(ctx context.Context, q queryer, bookIDs []int64) (map[int64][]models.Genre, error) {
	where, args := query.NewWhereBuilder().AddIn("bg.book_id", bookIDs).BuildWithPrefix()
	rows, err := q.QueryContext(ctx, `SELECT bg.book_id, g.id, g.name, g.created_at,
		(SELECT COUNT(*) FROM book_genres c WHERE c.genre_id = g.id) AS books_count
	FROM book_genres bg
	JOIN genres g ON g.id = bg.genre_id
	`+where+`
	ORDER BY bg.book_id, g.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load book genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make(map[int64][]models.Genre)
	for rows.Next() {
		var bookID int64
		var g models.Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Name, &g.CreatedAt, &g.BooksCount); err != nil {
			return nil, fmt.Errorf("failed to scan book genre: %w", err)
		}
		out[bookID] = append(out[bookID], g)
	}
	return out, rows.Err()
}

func ratingsByBook(ctx context.Context, q queryer, bookIDs []int64) (map[int64][]models.Rating, error) {
	where, args := query.NewWhereBuilder().AddIn("book_id", bookIDs).BuildWithPrefix()
	rows, err := q.QueryContext(ctx, ratingSelect+` `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load book ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make(map[int64][]models.Rating)
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		out[r.BookID] = append(out[r.BookID], *r)
	}
	return out, rows.Err()
}
