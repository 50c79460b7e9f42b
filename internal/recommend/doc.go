// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package recommend implements user-based collaborative filtering for books.
//
// # Pipeline
//
// Each request runs the same steps over a fresh snapshot of all ratings:
//
//  1. BuildMatrix maps user and book ids to dense positions and fills a
//     users x books gonum matrix. Unrated cells hold 0.
//  2. Centered subtracts each user's mean rating from the whole row.
//  3. SelectNeighbors scores every other user by cosine similarity against
//     the target's centered row and keeps the top N.
//  4. RankCandidates sums rating*similarity over positively similar
//     neighbors for books the target has not rated, and keeps the top K
//     with a strictly positive score.
//  5. When any step leaves nothing to rank, the result is a fallback and
//     the caller ranks books by global average rating with FallbackRanking.
//
// # Concurrency
//
// Engine holds no mutable state and the snapshot is never modified, so one
// Engine may serve concurrent requests. Service adds storage access, a
// circuit breaker around snapshot loads, and Prometheus metrics.
//
// # Usage
//
//	engine := recommend.NewEngine(logger)
//	svc := recommend.NewService(engine, db, db, recommend.ServiceConfig{Neighbors: 10}, logger)
//	resp, err := svc.Recommend(ctx, userID, 0, 10)
package recommend
