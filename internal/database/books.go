// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/database/query"
	"github.com/tomtom215/bookshelf/internal/models"
)

const bookSelect = `SELECT b.id, b.title, b.publication_year, b.author_id, b.average_rating, b.created_at
FROM books b`

// CreateBook inserts a book with its genre links. A missing author returns
// ErrNotFound and a missing genre returns ErrGenresNotFound.
func (db *DB) CreateBook(ctx context.Context, req *models.BookCreateRequest) (book *models.Book, err error) {
	start := time.Now()
	defer func() { observe("insert", "books", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireAuthor(ctx, tx, req.AuthorID); err != nil {
			return err
		}
		genreIDs := uniqueIDs(req.GenreIDs)
		if err := requireGenres(ctx, tx, genreIDs); err != nil {
			return err
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO books (title, publication_year, author_id) VALUES (?, ?, ?) RETURNING id`,
			req.Title, req.PublicationYear, req.AuthorID,
		).Scan(&id); err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		if err := linkGenres(ctx, tx, id, genreIDs); err != nil {
			return err
		}

		book, err = getBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook returns the book with its author, genres and ratings.
func (db *DB) GetBook(ctx context.Context, id int64) (book *models.Book, err error) {
	start := time.Now()
	defer func() { observe("select", "books", start, ignoreNotFound(err)) }()
	return getBook(ctx, db.conn, id)
}

func getBook(ctx context.Context, q queryer, id int64) (*models.Book, error) {
	books, err := loadBooks(ctx, q, `WHERE b.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

// ListBooks returns hydrated books matching filter, ordered by id.
func (db *DB) ListBooks(ctx context.Context, filter models.BookFilter) (books []models.Book, err error) {
	start := time.Now()
	defer func() { observe("select", "books", start, err) }()

	wb := query.NewWhereBuilder().
		AddEquals("b.author_id", filter.AuthorID).
		AddAtLeast("b.publication_year", filter.YearFrom).
		AddAtMost("b.publication_year", filter.YearTo)
	if filter.GenreID != nil {
		wb.AddClause("b.id IN (SELECT book_id FROM book_genres WHERE genre_id = ?)", *filter.GenreID)
	}
	where, args := wb.BuildWithPrefix()
	args = append(args, filter.Limit, filter.Skip)

	return loadBooks(ctx, db.conn, where+` ORDER BY b.id LIMIT ? OFFSET ?`, args...)
}

// GetBooksByIDs returns hydrated books in the order of ids. Ids that do not
// exist are skipped.
func (db *DB) GetBooksByIDs(ctx context.Context, ids []int64) (books []models.Book, err error) {
	start := time.Now()
	defer func() { observe("select", "books", start, err) }()

	if len(ids) == 0 {
		return []models.Book{}, nil
	}
	where, args := query.NewWhereBuilder().AddIn("b.id", ids).BuildWithPrefix()
	found, err := loadBooks(ctx, db.conn, where, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Book, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	books = make([]models.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

// UpdateBook applies the non-nil fields of req. A non-nil GenreIDs replaces
// the book's genre links.
func (db *DB) UpdateBook(ctx context.Context, id int64, req *models.BookUpdateRequest) (book *models.Book, err error) {
	start := time.Now()
	defer func() { observe("update", "books", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getBookRow(ctx, tx, id); err != nil {
			return err
		}
		if req.Title != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE books SET title = ? WHERE id = ?`, *req.Title, id); err != nil {
				return fmt.Errorf("failed to update title: %w", err)
			}
		}
		if req.PublicationYear != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE books SET publication_year = ? WHERE id = ?`, *req.PublicationYear, id); err != nil {
				return fmt.Errorf("failed to update publication year: %w", err)
			}
		}
		if req.AuthorID != nil {
			if err := requireAuthor(ctx, tx, *req.AuthorID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE books SET author_id = ? WHERE id = ?`, *req.AuthorID, id); err != nil {
				return fmt.Errorf("failed to update author: %w", err)
			}
		}
		if req.GenreIDs != nil {
			if err := replaceGenres(ctx, tx, id, uniqueIDs(req.GenreIDs)); err != nil {
				return err
			}
		}

		book, err = getBook(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes the book, its genre links and its ratings.
func (db *DB) DeleteBook(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", "books", start, ignoreNotFound(err)) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getBookRow(ctx, tx, id); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM ratings WHERE book_id = ?`,
			`DELETE FROM book_genres WHERE book_id = ?`,
			`DELETE FROM books WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete book: %w", err)
			}
		}
		return nil
	})
}

// getBookRow reads the bare book row without hydration.
func getBookRow(ctx context.Context, q queryer, id int64) (*models.Book, error) {
	b := &models.Book{}
	err := q.QueryRowContext(ctx, bookSelect+` WHERE b.id = ?`, id).
		Scan(&b.ID, &b.Title, &b.PublicationYear, &b.AuthorID, &b.AverageRating, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

func requireAuthor(ctx context.Context, q queryer, authorID int64) error {
	var exists bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM authors WHERE id = ?)`, authorID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check author: %w", err)
	}
	if !exists {
		return &NotFoundError{Resource: "author", ID: authorID}
	}
	return nil
}

func requireGenres(ctx context.Context, q queryer, genreIDs []int64) error {
	where, args := query.NewWhereBuilder().AddIn("id", genreIDs).Build()
	var found int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM genres WHERE `+where, args...).Scan(&found); err != nil {
		return fmt.Errorf("failed to check genres: %w", err)
	}
	if found != len(genreIDs) {
		return ErrGenresNotFound
	}
	return nil
}

func linkGenres(ctx context.Context, q queryer, bookID int64, genreIDs []int64) error {
	for _, gid := range genreIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, genre_id) VALUES (?, ?)`, bookID, gid); err != nil {
			return fmt.Errorf("failed to link genre %d: %w", gid, err)
		}
	}
	return nil
}

// replaceGenres makes genreIDs the book's exact genre set. Links already
// present are kept rather than deleted and re-inserted.
func replaceGenres(ctx context.Context, q queryer, bookID int64, genreIDs []int64) error {
	if err := requireGenres(ctx, q, genreIDs); err != nil {
		return err
	}

	current, err := bookGenreIDs(ctx, q, bookID)
	if err != nil {
		return err
	}
	want := make(map[int64]struct{}, len(genreIDs))
	for _, id := range genreIDs {
		want[id] = struct{}{}
	}

	for id := range current {
		if _, keep := want[id]; keep {
			continue
		}
		if _, err := q.ExecContext(ctx,
			`DELETE FROM book_genres WHERE book_id = ? AND genre_id = ?`, bookID, id); err != nil {
			return fmt.Errorf("failed to unlink genre %d: %w", id, err)
		}
	}

	var added []int64
	for _, id := range genreIDs {
		if _, ok := current[id]; !ok {
			added = append(added, id)
		}
	}
	return linkGenres(ctx, q, bookID, added)
}

func bookGenreIDs(ctx context.Context, q queryer, bookID int64) (map[int64]struct{}, error) {
	rows, err := q.QueryContext(ctx, `SELECT genre_id FROM book_genres WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to read book genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan genre id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// uniqueIDs drops repeated ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
