// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/recommend"
)

// RecommendationSnapshot loads every rating together with all user and
// book ids, in id order. Users and books without ratings are included so
// that the engine sees the whole catalog.
func (db *DB) RecommendationSnapshot(ctx context.Context) (snap recommend.Snapshot, err error) {
	start := time.Now()
	defer func() { observe("snapshot", "ratings", start, err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if snap.UserIDs, err = selectIDs(ctx, tx, `SELECT id FROM users ORDER BY id`); err != nil {
			return err
		}
		if snap.ItemIDs, err = selectIDs(ctx, tx, `SELECT id FROM books ORDER BY id`); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `SELECT user_id, book_id, rating FROM ratings ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		defer closeWithLog(rows, "rows")

		for rows.Next() {
			var o recommend.Observation
			var score int
			if err := rows.Scan(&o.UserID, &o.ItemID, &score); err != nil {
				return fmt.Errorf("failed to scan rating: %w", err)
			}
			o.Score = float64(score)
			snap.Observations = append(snap.Observations, o)
		}
		return rows.Err()
	})
	if err != nil {
		return recommend.Snapshot{}, err
	}
	return snap, nil
}

// BookAverages returns every book's stored average rating.
func (db *DB) BookAverages(ctx context.Context) (averages []recommend.ItemAverage, err error) {
	start := time.Now()
	defer func() { observe("select", "books", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, average_rating FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load book averages: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var a recommend.ItemAverage
		if err := rows.Scan(&a.ItemID, &a.Average); err != nil {
			return nil, fmt.Errorf("failed to scan book average: %w", err)
		}
		averages = append(averages, a)
	}
	return averages, rows.Err()
}

func selectIDs(ctx context.Context, q queryer, stmt string) ([]int64, error) {
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to load ids: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
