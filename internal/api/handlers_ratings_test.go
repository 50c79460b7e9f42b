// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

func TestRatings_Ownership(t *testing.T) {
	ts := setupTestServer(t)
	book := ts.seedBook("Rated")
	owner, ownerToken := ts.register("owner")
	_, otherToken := ts.register("other")

	rec := ts.do(http.MethodPost, "/api/v1/ratings", ownerToken, models.RatingCreateRequest{BookID: book.ID, Rating: 8})
	requireStatus(t, rec, http.StatusCreated)
	var rating models.Rating
	decodeData(t, rec, &rating)
	if rating.UserID != owner.ID {
		t.Errorf("rating.UserID = %d, want %d", rating.UserID, owner.ID)
	}

	rec = ts.do(http.MethodPost, "/api/v1/ratings", ownerToken, models.RatingCreateRequest{BookID: book.ID, Rating: 3})
	requireStatus(t, rec, http.StatusBadRequest)

	requireStatus(t,
		ts.do(http.MethodPost, "/api/v1/ratings", ownerToken, models.RatingCreateRequest{BookID: 9999, Rating: 3}),
		http.StatusNotFound)
	requireStatus(t,
		ts.do(http.MethodPost, "/api/v1/ratings", ownerToken, `{"book_id":1,"rating":11}`),
		http.StatusBadRequest)

	path := fmt.Sprintf("/api/v1/ratings/%d", rating.ID)
	requireStatus(t, ts.do(http.MethodGet, path, "", nil), http.StatusOK)

	tests := []struct {
		name       string
		method     string
		token      string
		body       interface{}
		wantStatus int
	}{
		{"anonymous update", http.MethodPut, "", `{"rating":1}`, http.StatusUnauthorized},
		{"other user update", http.MethodPut, otherToken, `{"rating":1}`, http.StatusForbidden},
		{"other user delete", http.MethodDelete, otherToken, nil, http.StatusForbidden},
		{"admin is not the owner", http.MethodPut, ts.adminToken, `{"rating":1}`, http.StatusForbidden},
		{"owner empty update", http.MethodPut, ownerToken, `{}`, http.StatusBadRequest},
		{"owner update", http.MethodPut, ownerToken, `{"rating":6,"review":"Better on reread."}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireStatus(t, ts.do(tt.method, path, tt.token, tt.body), tt.wantStatus)
		})
	}

	rec = ts.do(http.MethodGet, fmt.Sprintf("/api/v1/books/%d", book.ID), "", nil)
	var refreshed models.Book
	decodeData(t, rec, &refreshed)
	if refreshed.AverageRating != 6 {
		t.Errorf("average rating = %v, want 6", refreshed.AverageRating)
	}

	rec = ts.do(http.MethodGet, "/api/v1/ratings", ownerToken, nil)
	requireStatus(t, rec, http.StatusOK)
	var mine []models.Rating
	decodeData(t, rec, &mine)
	if len(mine) != 1 {
		t.Errorf("own ratings = %d, want 1", len(mine))
	}

	rec = ts.do(http.MethodGet, "/api/v1/ratings", otherToken, nil)
	decodeData(t, rec, &mine)
	if len(mine) != 0 {
		t.Errorf("other user sees %d ratings, want 0", len(mine))
	}
	requireStatus(t, ts.do(http.MethodGet, "/api/v1/ratings", "", nil), http.StatusUnauthorized)

	requireStatus(t, ts.do(http.MethodDelete, path, ownerToken, nil), http.StatusNoContent)
	requireStatus(t, ts.do(http.MethodGet, path, "", nil), http.StatusNotFound)
}

func TestRecommendations(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.register("newcomer")
	ts.seedBook("Only Book")

	rec := ts.do(http.MethodGet, "/api/v1/recommendations", token, nil)
	requireStatus(t, rec, http.StatusOK)
	env := decodeEnvelope(t, rec)
	if env.Metadata.Outcome != string(recommend.OutcomeFallback) {
		t.Errorf("outcome = %q, want fallback", env.Metadata.Outcome)
	}
	if env.Metadata.Reason != string(recommend.ReasonNoObservations) {
		t.Errorf("reason = %q, want no_observations", env.Metadata.Reason)
	}
	if env.Metadata.Limit == nil || *env.Metadata.Limit != 10 {
		t.Errorf("limit = %v, want default 10", env.Metadata.Limit)
	}
	var books []models.Book
	decodeData(t, rec, &books)
	if len(books) != 1 {
		t.Errorf("fallback returned %d books, want 1", len(books))
	}

	requireStatus(t, ts.do(http.MethodGet, "/api/v1/recommendations?limit=101", token, nil), http.StatusBadRequest)
	requireStatus(t, ts.do(http.MethodGet, "/api/v1/recommendations?skip=-1", token, nil), http.StatusBadRequest)
	requireStatus(t, ts.do(http.MethodGet, "/api/v1/recommendations", "", nil), http.StatusUnauthorized)
}

func TestRecommendations_ReflectNewRatings(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.register("reader")
	first := ts.seedBook("First")
	second := ts.seedBook("Second")

	recommended := func() []int64 {
		rec := ts.do(http.MethodGet, "/api/v1/recommendations", token, nil)
		requireStatus(t, rec, http.StatusOK)
		var books []models.Book
		decodeData(t, rec, &books)
		ids := make([]int64, len(books))
		for i, b := range books {
			ids[i] = b.ID
		}
		return ids
	}

	if got := recommended(); len(got) != 2 {
		t.Fatalf("before rating: %v, want both books", got)
	}

	rec := ts.do(http.MethodPost, "/api/v1/ratings", token, models.RatingCreateRequest{BookID: first.ID, Rating: 9})
	requireStatus(t, rec, http.StatusCreated)

	got := recommended()
	if len(got) != 1 || got[0] != second.ID {
		t.Errorf("after rating: %v, want only [%d]", got, second.ID)
	}
}

// stubRecommender returns a fixed response or error.
type stubRecommender struct {
	resp *recommend.Response
	err  error
}

func (s *stubRecommender) Recommend(context.Context, int64, int, int) (*recommend.Response, error) {
	return s.resp, s.err
}

func (s *stubRecommender) BreakerState() string { return "open" }

func (s *stubRecommender) Invalidate() {}

func TestRecommendations_Errors(t *testing.T) {
	user := &models.User{ID: 7, Username: "reader"}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown user", recommend.ErrUnknownUser, http.StatusNotFound},
		{"breaker open", fmt.Errorf("load: %w", recommend.ErrCatalogUnavailable), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil, &stubRecommender{err: tt.err}, nil, nil, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)
			req = req.WithContext(auth.WithUser(req.Context(), user))
			rec := httptest.NewRecorder()
			h.Recommendations(rec, req)
			requireStatus(t, rec, tt.wantStatus)
		})
	}
}
