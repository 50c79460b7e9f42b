// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := User{ID: 7, Email: "reader@example.com", Username: "reader", HashedPassword: "$2a$12$secret"}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Errorf("user JSON leaks the password hash: %s", b)
	}
}

func TestRoleFor(t *testing.T) {
	if got := RoleFor(true); got != RoleAdmin {
		t.Errorf("RoleFor(true) = %q, want %q", got, RoleAdmin)
	}
	u := &User{}
	if got := u.Role(); got != RoleReader {
		t.Errorf("Role() = %q, want %q", got, RoleReader)
	}
	if !IsValidRole(RoleReader) || IsValidRole("editor") {
		t.Error("IsValidRole() mismatch")
	}
}

func TestUpdateRequestsIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		body string
		into interface{ IsEmpty() bool }
		want bool
	}{
		{"author empty", `{}`, &AuthorUpdateRequest{}, true},
		{"author bio only", `{"bio":"wrote things"}`, &AuthorUpdateRequest{}, false},
		{"book empty", `{}`, &BookUpdateRequest{}, true},
		{"book empty genre list is a change", `{"genre_ids":[]}`, &BookUpdateRequest{}, false},
		{"rating empty", `{}`, &RatingUpdateRequest{}, true},
		{"rating score", `{"rating":4}`, &RatingUpdateRequest{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := json.Unmarshal([]byte(tt.body), tt.into); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got := tt.into.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
