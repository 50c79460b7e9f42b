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

	"github.com/tomtom215/bookshelf/internal/models"
)

const authorSelect = `SELECT a.id, a.name, a.bio, a.created_at,
	(SELECT COUNT(*) FROM books b WHERE b.author_id = a.id) AS books_count
FROM authors a`

func scanAuthor(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Author, error) {
	a := &models.Author{}
	var bio sql.NullString
	if err := scanner.Scan(&a.ID, &a.Name, &bio, &a.CreatedAt, &a.BooksCount); err != nil {
		return nil, err
	}
	if bio.Valid {
		a.Bio = &bio.String
	}
	return a, nil
}

// authorNameTaken reports whether another author already uses name.
// excludeID 0 checks every author.
func authorNameTaken(ctx context.Context, q queryer, name string, excludeID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM authors WHERE name = ? AND id <> ?)`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check author name: %w", err)
	}
	return exists, nil
}

// CreateAuthor inserts an author. A duplicate name returns ErrAuthorExists.
func (db *DB) CreateAuthor(ctx context.Context, req *models.AuthorCreateRequest) (author *models.Author, err error) {
	start := time.Now()
	defer func() { observe("insert", "authors", start, err) }()

	author = &models.Author{Name: req.Name, Bio: req.Bio}
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := authorNameTaken(ctx, tx, req.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrAuthorExists
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO authors (name, bio) VALUES (?, ?) RETURNING id, created_at`,
			req.Name, nullableString(req.Bio),
		).Scan(&author.ID, &author.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, ErrAuthorExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create author: %w", err)
	}
	return author, nil
}

// GetAuthor returns the author with its books_count.
func (db *DB) GetAuthor(ctx context.Context, id int64) (*models.Author, error) {
	return getAuthor(ctx, db.conn, id)
}

func getAuthor(ctx context.Context, q queryer, id int64) (author *models.Author, err error) {
	start := time.Now()
	defer func() { observe("select", "authors", start, ignoreNotFound(err)) }()

	author, err = scanAuthor(q.QueryRowContext(ctx, authorSelect+` WHERE a.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return author, nil
}

// ListAuthors returns authors ordered by id.
func (db *DB) ListAuthors(ctx context.Context, skip, limit int) (authors []models.Author, err error) {
	start := time.Now()
	defer func() { observe("select", "authors", start, err) }()

	rows, err := db.conn.QueryContext(ctx, authorSelect+` ORDER BY a.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer closeWithLog(rows, "rows")

	authors = []models.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

// UpdateAuthor applies the non-nil fields of req. A new name that another
// author already uses returns ErrAuthorExists.
func (db *DB) UpdateAuthor(ctx context.Context, id int64, req *models.AuthorUpdateRequest) (author *models.Author, err error) {
	start := time.Now()
	defer func() { observe("update", "authors", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getAuthor(ctx, tx, id); err != nil {
			return err
		}
		if req.Name != nil {
			taken, err := authorNameTaken(ctx, tx, *req.Name, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrAuthorExists
			}
			if _, err := tx.ExecContext(ctx, `UPDATE authors SET name = ? WHERE id = ?`, *req.Name, id); err != nil {
				return fmt.Errorf("failed to update author name: %w", err)
			}
		}
		if req.Bio != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE authors SET bio = ? WHERE id = ?`, *req.Bio, id); err != nil {
				return fmt.Errorf("failed to update author bio: %w", err)
			}
		}
		author, err = getAuthor(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return author, nil
}

// DeleteAuthor removes the author together with its books, their genre
// links and their ratings.
func (db *DB) DeleteAuthor(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", "authors", start, ignoreNotFound(err)) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getAuthor(ctx, tx, id); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM ratings WHERE book_id IN (SELECT id FROM books WHERE author_id = ?)`,
			`DELETE FROM book_genres WHERE book_id IN (SELECT id FROM books WHERE author_id = ?)`,
			`DELETE FROM books WHERE author_id = ?`,
			`DELETE FROM authors WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete author: %w", err)
			}
		}
		return nil
	})
}
