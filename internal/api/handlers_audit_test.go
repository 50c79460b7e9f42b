// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/audit"
	"github.com/tomtom215/bookshelf/internal/models"
)

func (ts *testServer) auditEvents(query string) []audit.Event {
	ts.t.Helper()
	rec := ts.do(http.MethodGet, "/api/v1/admin/audit-events"+query, ts.adminToken, nil)
	requireStatus(ts.t, rec, http.StatusOK)
	var events []audit.Event
	decodeData(ts.t, rec, &events)
	return events
}

func TestAuditEvents_RecordsAuthentication(t *testing.T) {
	ts := setupTestServer(t)
	user, _ := ts.register("reader")

	rec := ts.do(http.MethodPost, "/api/v1/login", "", models.LoginRequest{Email: "reader@example.com", Password: "wrong-password"})
	requireStatus(t, rec, http.StatusUnauthorized)

	created := ts.auditEvents("?type=user.created")
	if len(created) != 1 || created[0].ActorID == nil || *created[0].ActorID != user.ID {
		t.Fatalf("user.created events = %+v", created)
	}

	// The admin and the reader each logged in once.
	if got := ts.auditEvents("?type=auth.success"); len(got) != 2 {
		t.Errorf("auth.success events = %d, want 2", len(got))
	}

	failures := ts.auditEvents("?outcome=failure")
	if len(failures) != 1 {
		t.Fatalf("failure events = %d, want 1", len(failures))
	}
	if failures[0].ActorName != "reader@example.com" || failures[0].RequestID == "" {
		t.Errorf("failure event = %+v", failures[0])
	}

	mine := ts.auditEvents("?user_id=" + strconv.FormatInt(user.ID, 10))
	if len(mine) != 2 {
		t.Errorf("events for reader = %d, want 2 (registration and login)", len(mine))
	}
}

func TestAuditEvents_Lockout(t *testing.T) {
	ts := setupTestServer(t)
	ts.register("victim")

	bad := models.LoginRequest{Email: "victim@example.com", Password: "wrong-password"}
	for i := 0; i < 3; i++ {
		ts.do(http.MethodPost, "/api/v1/login", "", bad)
	}
	ts.do(http.MethodPost, "/api/v1/login", "", models.LoginRequest{Email: "victim@example.com", Password: testPassword})

	if got := ts.auditEvents("?type=auth.lockout"); len(got) != 1 {
		t.Errorf("auth.lockout events = %d, want 1", len(got))
	}
	// Three bad passwords plus one attempt while locked.
	if got := ts.auditEvents("?type=auth.failure"); len(got) != 4 {
		t.Errorf("auth.failure events = %d, want 4", len(got))
	}
}

func TestAuditEvents_Filters(t *testing.T) {
	ts := setupTestServer(t)
	ts.register("reader")

	future := url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339))
	if got := ts.auditEvents("?since=" + future); len(got) != 0 {
		t.Errorf("events since the future = %d, want 0", len(got))
	}
	if got := ts.auditEvents("?type=auth.success,user.created&limit=1"); len(got) != 1 {
		t.Errorf("limited events = %d, want 1", len(got))
	}

	tests := []struct {
		name  string
		query string
	}{
		{"unknown type", "?type=book.deleted"},
		{"bad outcome", "?outcome=maybe"},
		{"bad since", "?since=yesterday"},
		{"bad user id", "?user_id=0"},
		{"bad limit", "?limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/admin/audit-events"+tt.query, ts.adminToken, nil)
			requireStatus(t, rec, http.StatusBadRequest)
			if code := errorCode(t, rec); code != "VALIDATION_ERROR" {
				t.Errorf("code = %s, want VALIDATION_ERROR", code)
			}
		})
	}
}

func TestAuditEvents_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)
	_, token := ts.register("reader")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"reader", token, http.StatusForbidden},
		{"admin", ts.adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/v1/admin/audit-events", tt.token, nil)
			requireStatus(t, rec, tt.want)
		})
	}
}
