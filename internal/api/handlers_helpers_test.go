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
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query     string
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{"", 0, 100, false},
		{"?skip=5&limit=20", 5, 20, false},
		{"?limit=1000", 0, 1000, false},
		{"?limit=1001", 0, 0, true},
		{"?limit=0", 0, 0, true},
		{"?skip=-1", 0, 0, true},
		{"?skip=abc", 0, 0, true},
		{"?limit=1.5", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			page, err := parsePagination(r, 100, 1000)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePagination() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if page.Skip != tt.wantSkip || page.Limit != tt.wantLimit {
				t.Errorf("page = %+v, want skip=%d limit=%d", page, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestQueryOptionalYear(t *testing.T) {
	tests := []struct {
		query   string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"?y=1000", intPtr(1000), false},
		{"?y=2100", intPtr(2100), false},
		{"?y=999", nil, true},
		{"?y=2101", nil, true},
		{"?y=soon", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			got, err := queryOptionalYear(r, "y", minYear, maxYear)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func intPtr(i int) *int { return &i }

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/books/"+tt.raw, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.raw)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			got, err := pathID(r, "id")
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("pathID(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Fantasy"}`, false},
		{"empty", ``, true},
		{"whitespace", "  \n", true},
		{"unknown field", `{"name":"Fantasy","extra":1}`, true},
		{"malformed", `{"name":`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req models.GenreRequest
			err := decodeJSON(r, &req)
			if (err != nil) != tt.wantErr {
				t.Errorf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		resource   string
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found uses resource", database.ErrNotFound, "genre", http.StatusNotFound, "NOT_FOUND", "Genre not found"},
		{"typed not found wins", fmt.Errorf("create: %w", &database.NotFoundError{Resource: "author", ID: 3}), "book", http.StatusNotFound, "NOT_FOUND", "Author not found"},
		{"missing genres", database.ErrGenresNotFound, "book", http.StatusNotFound, "NOT_FOUND", "One or more genres not found"},
		{"duplicate author", database.ErrAuthorExists, "author", http.StatusBadRequest, "CONFLICT", database.ErrAuthorExists.Error()},
		{"already rated", database.ErrAlreadyRated, "book", http.StatusBadRequest, "CONFLICT", database.ErrAlreadyRated.Error()},
		{"email taken", database.ErrEmailTaken, "user", http.StatusBadRequest, "CONFLICT", database.ErrEmailTaken.Error()},
		{"not owner", ErrNotOwner, "rating", http.StatusForbidden, "FORBIDDEN", ""},
		{"nothing to update", ErrNothingToUpdate, "book", http.StatusBadRequest, "BAD_REQUEST", ""},
		{"unknown user", recommend.ErrUnknownUser, "user", http.StatusNotFound, "USER_NOT_FOUND", ""},
		{"catalog unavailable", recommend.ErrCatalogUnavailable, "", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", ""},
		{"timeout", context.DeadlineExceeded, "", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", ""},
		{"unmapped", errors.New("disk on fire"), "", http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, tt.resource)
			if got.status != tt.wantStatus || got.code != tt.wantCode {
				t.Errorf("mapError() = %d %s, want %d %s", got.status, got.code, tt.wantStatus, tt.wantCode)
			}
			if tt.wantMsg != "" && got.message != tt.wantMsg {
				t.Errorf("message = %q, want %q", got.message, tt.wantMsg)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
