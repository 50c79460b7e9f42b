// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"io"
	"testing"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

func TestRecommendationSnapshot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	empty, err := db.RecommendationSnapshot(ctx)
	checkNoError(t, err)
	if len(empty.Observations) != 0 || len(empty.UserIDs) != 0 || len(empty.ItemIDs) != 0 {
		t.Errorf("empty snapshot = %+v", empty)
	}

	a := mustCreateAuthor(t, db, "Snap Author")
	g := mustCreateGenre(t, db, "Snap Genre")
	b1 := mustCreateBook(t, db, "Snap One", 2001, a.ID, g.ID)
	b2 := mustCreateBook(t, db, "Snap Two", 2002, a.ID, g.ID)
	u1 := mustCreateUser(t, db, "snap1")
	u2 := mustCreateUser(t, db, "snap2")
	mustRate(t, db, u1.ID, b1.ID, 8)

	snap, err := db.RecommendationSnapshot(ctx)
	checkNoError(t, err)
	checkIDs(t, "users", snap.UserIDs, []int64{u1.ID, u2.ID})
	checkIDs(t, "items", snap.ItemIDs, []int64{b1.ID, b2.ID})
	if len(snap.Observations) != 1 {
		t.Fatalf("observations = %+v", snap.Observations)
	}
	want := recommend.Observation{UserID: u1.ID, ItemID: b1.ID, Score: 8}
	if snap.Observations[0] != want {
		t.Errorf("observation = %+v, want %+v", snap.Observations[0], want)
	}
}

func TestBookAverages(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateAuthor(t, db, "Avg Author")
	g := mustCreateGenre(t, db, "Avg Genre")
	b1 := mustCreateBook(t, db, "Avg One", 2001, a.ID, g.ID)
	b2 := mustCreateBook(t, db, "Avg Two", 2002, a.ID, g.ID)
	u := mustCreateUser(t, db, "avg")
	mustRate(t, db, u.ID, b2.ID, 6)

	averages, err := db.BookAverages(ctx)
	checkNoError(t, err)
	want := []recommend.ItemAverage{{ItemID: b1.ID, Average: 0}, {ItemID: b2.ID, Average: 6}}
	if len(averages) != len(want) {
		t.Fatalf("BookAverages() = %+v", averages)
	}
	for i := range want {
		if averages[i] != want[i] {
			t.Errorf("averages[%d] = %+v, want %+v", i, averages[i], want[i])
		}
	}
}

// TestRecommendationService_EndToEnd runs the service against a real
// database: three readers with overlapping tastes and a fourth who has
// rated nothing.
func TestRecommendationService_EndToEnd(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateAuthor(t, db, "E2E Author")
	g := mustCreateGenre(t, db, "E2E Genre")
	var books []int64
	for i, title := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		books = append(books, mustCreateBook(t, db, title, 2000+i, a.ID, g.ID).ID)
	}

	target := mustCreateUser(t, db, "target")
	twin := mustCreateUser(t, db, "twin")
	contrarian := mustCreateUser(t, db, "contrarian")
	newcomer := mustCreateUser(t, db, "newcomer")

	// target and twin agree on Alpha and Beta; twin also loves Gamma.
	mustRate(t, db, target.ID, books[0], 9)
	mustRate(t, db, target.ID, books[1], 2)
	mustRate(t, db, twin.ID, books[0], 10)
	mustRate(t, db, twin.ID, books[1], 1)
	mustRate(t, db, twin.ID, books[2], 9)
	mustRate(t, db, contrarian.ID, books[0], 1)
	mustRate(t, db, contrarian.ID, books[1], 10)
	mustRate(t, db, contrarian.ID, books[3], 10)

	svc := recommend.NewService(
		recommend.NewEngine(logging.NewTestLogger(io.Discard)),
		db, db,
		recommend.ServiceConfig{Neighbors: 10},
		logging.NewTestLogger(io.Discard),
	)

	resp, err := svc.Recommend(ctx, target.ID, 0, 10)
	checkNoError(t, err)
	if resp.Outcome != recommend.OutcomeCollaborative {
		t.Fatalf("outcome = %s (%s), want collaborative", resp.Outcome, resp.Reason)
	}
	if len(resp.Books) == 0 || resp.Books[0].ID != books[2] {
		t.Errorf("first recommendation should be Gamma (%d), got %+v", books[2], resp.Books)
	}
	for _, b := range resp.Books {
		if b.ID == books[0] || b.ID == books[1] {
			t.Errorf("already-rated book %d recommended", b.ID)
		}
	}

	fallback, err := svc.Recommend(ctx, newcomer.ID, 0, 2)
	checkNoError(t, err)
	if fallback.Outcome != recommend.OutcomeFallback || fallback.Reason != recommend.ReasonNoObservations {
		t.Errorf("newcomer outcome = %s/%s", fallback.Outcome, fallback.Reason)
	}
	if len(fallback.Books) != 2 {
		t.Errorf("fallback returned %d books, want 2", len(fallback.Books))
	}

	_, err = svc.Recommend(ctx, 999, 0, 10)
	checkErrorIs(t, err, recommend.ErrUnknownUser)
}
