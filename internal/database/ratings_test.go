// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/bookshelf/internal/models"
)

func TestRatings_AverageMaintenance(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateAuthor(t, db, "Average Author")
	g := mustCreateGenre(t, db, "Average Genre")
	book := mustCreateBook(t, db, "Averaged", 1999, a.ID, g.ID)
	u1 := mustCreateUser(t, db, "rater1")
	u2 := mustCreateUser(t, db, "rater2")
	u3 := mustCreateUser(t, db, "rater3")

	averageOf := func() float64 {
		t.Helper()
		b, err := db.GetBook(ctx, book.ID)
		checkNoError(t, err)
		return b.AverageRating
	}

	r1 := mustRate(t, db, u1.ID, book.ID, 7)
	if got := averageOf(); got != 7 {
		t.Errorf("average after one rating = %v, want 7", got)
	}

	mustRate(t, db, u2.ID, book.ID, 8)
	r3 := mustRate(t, db, u3.ID, book.ID, 8)
	if got := averageOf(); got != 7.67 {
		t.Errorf("average of 7,8,8 = %v, want 7.67", got)
	}

	_, err := db.UpdateRating(ctx, r1.ID, &models.RatingUpdateRequest{Rating: intPtr(10)})
	checkNoError(t, err)
	if got := averageOf(); got != 8.67 {
		t.Errorf("average after update = %v, want 8.67", got)
	}

	checkNoError(t, db.DeleteRating(ctx, r3.ID))
	if got := averageOf(); got != 9 {
		t.Errorf("average after delete = %v, want 9", got)
	}

	checkNoError(t, db.DeleteRating(ctx, r1.ID))
	ratings, err := db.ListUserRatings(ctx, u2.ID, 0, 10)
	checkNoError(t, err)
	checkNoError(t, db.DeleteRating(ctx, ratings[0].ID))
	if got := averageOf(); got != 0 {
		t.Errorf("average with no ratings = %v, want 0", got)
	}
}

func TestCreateRating_Errors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateAuthor(t, db, "Err Author")
	g := mustCreateGenre(t, db, "Err Genre")
	book := mustCreateBook(t, db, "Rated Once", 2010, a.ID, g.ID)
	u := mustCreateUser(t, db, "once")
	mustRate(t, db, u.ID, book.ID, 5)

	_, err := db.CreateRating(ctx, u.ID, &models.RatingCreateRequest{BookID: book.ID, Rating: 6})
	checkErrorIs(t, err, ErrAlreadyRated)

	_, err = db.CreateRating(ctx, u.ID, &models.RatingCreateRequest{BookID: 999, Rating: 6})
	checkErrorIs(t, err, ErrNotFound)

	_, err = db.UpdateRating(ctx, 999, &models.RatingUpdateRequest{Rating: intPtr(3)})
	checkErrorIs(t, err, ErrNotFound)
	checkErrorIs(t, db.DeleteRating(ctx, 999), ErrNotFound)
}

func TestRatings_ReviewAndListing(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateAuthor(t, db, "List Author")
	g := mustCreateGenre(t, db, "List Genre")
	b1 := mustCreateBook(t, db, "First", 2001, a.ID, g.ID)
	b2 := mustCreateBook(t, db, "Second", 2002, a.ID, g.ID)
	b3 := mustCreateBook(t, db, "Third", 2003, a.ID, g.ID)
	u := mustCreateUser(t, db, "lister")
	other := mustCreateUser(t, db, "other")

	created, err := db.CreateRating(ctx, u.ID, &models.RatingCreateRequest{BookID: b1.ID, Rating: 4, Review: strPtr("fine")})
	checkNoError(t, err)
	if created.Review == nil || *created.Review != "fine" {
		t.Errorf("review = %v", created.Review)
	}
	if created.UserID != u.ID || created.BookID != b1.ID {
		t.Errorf("created = %+v", created)
	}
	mustRate(t, db, u.ID, b2.ID, 5)
	mustRate(t, db, u.ID, b3.ID, 6)
	mustRate(t, db, other.ID, b1.ID, 9)

	updated, err := db.UpdateRating(ctx, created.ID, &models.RatingUpdateRequest{Review: strPtr("better on reread")})
	checkNoError(t, err)
	if updated.Rating != 4 {
		t.Errorf("review-only update changed rating to %d", updated.Rating)
	}
	if *updated.Review != "better on reread" {
		t.Errorf("review = %q", *updated.Review)
	}
	if updated.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updated_at moved backwards")
	}

	all, err := db.ListUserRatings(ctx, u.ID, 0, 10)
	checkNoError(t, err)
	if len(all) != 3 {
		t.Fatalf("ListUserRatings() returned %d, want 3", len(all))
	}
	for _, r := range all {
		if r.UserID != u.ID {
			t.Errorf("rating %d belongs to user %d", r.ID, r.UserID)
		}
	}

	page, err := db.ListUserRatings(ctx, u.ID, 1, 1)
	checkNoError(t, err)
	if len(page) != 1 || page[0].BookID != b2.ID {
		t.Errorf("ListUserRatings(1, 1) = %+v", page)
	}

	book, err := db.GetBook(ctx, b1.ID)
	checkNoError(t, err)
	if len(book.Ratings) != 2 {
		t.Errorf("book ratings = %d, want 2", len(book.Ratings))
	}
}
