// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/models"
)

func TestMiddleware_Require(t *testing.T) {
	t.Parallel()
	mw := NewMiddleware(setupEnforcer(t))

	reader := &models.User{ID: 1, Username: "reader"}
	admin := &models.User{ID: 2, Username: "admin", IsAdmin: true}

	tests := []struct {
		name       string
		user       *models.User
		object     string
		wantStatus int
	}{
		{"anonymous", nil, ObjectBooks, http.StatusUnauthorized},
		{"reader on books", reader, ObjectBooks, http.StatusForbidden},
		{"admin on books", admin, ObjectBooks, http.StatusNoContent},
		{"reader on authors", reader, ObjectAuthors, http.StatusNoContent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := mw.Require(tt.object, ActionWrite)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/"+tt.object, nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
