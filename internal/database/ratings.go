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

const ratingSelect = `SELECT id, user_id, book_id, rating, review, created_at, updated_at FROM ratings`

func scanRating(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Rating, error) {
	r := &models.Rating{}
	var review sql.NullString
	if err := scanner.Scan(&r.ID, &r.UserID, &r.BookID, &r.Rating, &review, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if review.Valid {
		r.Review = &review.String
	}
	return r, nil
}

// CreateRating stores userID's rating of a book and refreshes the book's
// average. A missing book returns ErrNotFound; a second rating of the same
// book returns ErrAlreadyRated.
func (db *DB) CreateRating(ctx context.Context, userID int64, req *models.RatingCreateRequest) (rating *models.Rating, err error) {
	start := time.Now()
	defer func() { observe("insert", "ratings", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getBookRow(ctx, tx, req.BookID); err != nil {
			return err
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM ratings WHERE user_id = ? AND book_id = ?)`,
			userID, req.BookID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check rating: %w", err)
		}
		if exists {
			return ErrAlreadyRated
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO ratings (user_id, book_id, rating, review) VALUES (?, ?, ?, ?) RETURNING id`,
			userID, req.BookID, req.Rating, nullableString(req.Review),
		).Scan(&id); err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyRated
			}
			return fmt.Errorf("failed to create rating: %w", err)
		}

		if err := refreshAverageRating(ctx, tx, req.BookID); err != nil {
			return err
		}
		rating, err = getRating(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// GetRating returns ErrNotFound for an unknown id.
func (db *DB) GetRating(ctx context.Context, id int64) (rating *models.Rating, err error) {
	start := time.Now()
	defer func() { observe("select", "ratings", start, ignoreNotFound(err)) }()
	return getRating(ctx, db.conn, id)
}

func getRating(ctx context.Context, q queryer, id int64) (*models.Rating, error) {
	r, err := scanRating(q.QueryRowContext(ctx, ratingSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return r, nil
}

// ListUserRatings returns userID's ratings ordered by id.
func (db *DB) ListUserRatings(ctx context.Context, userID int64, skip, limit int) (ratings []models.Rating, err error) {
	start := time.Now()
	defer func() { observe("select", "ratings", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		ratingSelect+` WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`, userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer closeWithLog(rows, "rows")

	ratings = []models.Rating{}
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, *r)
	}
	return ratings, rows.Err()
}

// UpdateRating applies the non-nil fields of req and refreshes the book's
// average. Ownership is checked by the caller.
func (db *DB) UpdateRating(ctx context.Context, id int64, req *models.RatingUpdateRequest) (rating *models.Rating, err error) {
	start := time.Now()
	defer func() { observe("update", "ratings", start, ignoreNotFound(err)) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getRating(ctx, tx, id)
		if err != nil {
			return err
		}
		if req.Rating != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE ratings SET rating = ? WHERE id = ?`, *req.Rating, id); err != nil {
				return fmt.Errorf("failed to update rating: %w", err)
			}
		}
		if req.Review != nil {
			if _, err := tx.ExecContext(ctx, `UPDATE ratings SET review = ? WHERE id = ?`, *req.Review, id); err != nil {
				return fmt.Errorf("failed to update review: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE ratings SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to touch rating: %w", err)
		}

		if err := refreshAverageRating(ctx, tx, current.BookID); err != nil {
			return err
		}
		rating, err = getRating(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// DeleteRating removes a rating and refreshes the book's average.
func (db *DB) DeleteRating(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { observe("delete", "ratings", start, ignoreNotFound(err)) }()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getRating(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete rating: %w", err)
		}
		return refreshAverageRating(ctx, tx, current.BookID)
	})
}

// refreshAverageRating stores ROUND(AVG(rating), 2) on the book, or 0 when
// it has no ratings.
func refreshAverageRating(ctx context.Context, q queryer, bookID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE books
		SET average_rating = COALESCE((SELECT ROUND(AVG(rating), 2) FROM ratings WHERE book_id = ?), 0)
		WHERE id = ?`, bookID, bookID)
	if err != nil {
		return fmt.Errorf("failed to refresh average rating for book %d: %w", bookID, err)
	}
	return nil
}
