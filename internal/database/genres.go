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

const genreSelect = `SELECT g.id, g.name, g.created_at,
	(SELECT COUNT(*) FROM book_genres bg WHERE bg.genre_id = g.id) AS books_count
FROM genres g`

func scanGenre(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Genre, error) {
	g := &models.Genre{}
	if err := scanner.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.BooksCount); err != nil {
		return nil, err
	}
	return g, nil
}

func genreNameTaken(ctx context.Context, q queryer, name string, excludeID int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM genres WHERE name = ? AND id <> ?)`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check genre name: %w", err)
	}
	return exists, nil
}

// CreateGenre inserts a genre. A duplicate name returns ErrGenreExists.
func (db *DB) CreateGenre(ctx context.Context, name string) (genre *models.Genre, err error) {
	start := time.Now()
	defer func() { observe("insert", "genres", start, err) }()

	genre = &models.Genre{Name: name}
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := genreNameTaken(ctx, tx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrGenreExists
		}
		return tx.QueryRowContext(ctx,
			`INSERT INTO genres (name) VALUES (?) RETURNING id, created_at`, name,
		).Scan(&genre.ID, &genre.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, ErrGenreExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create genre: %w", err)
	}
	return genre, nil
}

// GetGenre returns the genre with its books_count.
func (db *DB) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	return getGenre(ctx, db.conn, id)
}

func getGenre(ctx context.Context, q queryer, id int64) (genre *models.Genre, err error) {
	start := time.Now()
	defer func() { observe("select", "genres", start, ignoreNotFound(err)) }()

	genre, err = scanGenre(q.QueryRowContext(ctx, genreSelect+` WHERE g.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return genre, nil
}

// ListGenres returns genres ordered by id.
func (db *DB) ListGenres(ctx context.Context, skip, limit int) (genres []models.Genre, err error) {
	start := time.Now()
	defer func() { observe("select", "genres", start, err) }()

	rows, err := db.conn.QueryContext(ctx, genreSelect+` ORDER BY g.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer closeWithLog(rows, "rows")

	genres = []models.Genre{}
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, *g)
	}
	return genres, rows.Err()
}

// UpdateGenre renames a genre.
func (db *DB) UpdateGenre(ctx context.Context, id int64, name string) (genre *models.Genre, err error) {
	start := time.Now()
	defer func() { observe("update", "genres", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getGenre(ctx, tx, id); err != nil {
			return err
		}
		taken, err := genreNameTaken(ctx, tx, name, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrGenreExists
		}
		if _, err := tx.ExecContext(ctx, `UPDATE genres SET name = ? WHERE id = ?`, name, id); err != nil {
			return fmt.Errorf("failed to update genre: %w", err)
		}
		genre, err = getGenre(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return genre, nil
}

// DeleteGenre removes the genre and its book links. Books stay.
func (db *DB) DeleteGenre(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", "genres", start, ignoreNotFound(err)) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getGenre(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM book_genres WHERE genre_id = ?`, id); err != nil {
			return fmt.Errorf("failed to unlink genre: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete genre: %w", err)
		}
		return nil
	})
}
