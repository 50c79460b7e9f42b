// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	_ "github.com/tomtom215/bookshelf/docs"
)

type swaggerDoc struct {
	Swagger string                                `json:"swagger"`
	Paths   map[string]map[string]json.RawMessage `json:"paths"`
}

func fetchSwaggerDoc(t *testing.T, ts *testServer) swaggerDoc {
	t.Helper()
	rec := ts.do(http.MethodGet, "/swagger/doc.json", "", nil)
	requireStatus(t, rec, http.StatusOK)

	var doc swaggerDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not valid JSON: %v", err)
	}
	return doc
}

func TestSwagger_DocJSON(t *testing.T) {
	ts := setupTestServer(t)
	doc := fetchSwaggerDoc(t, ts)

	if doc.Swagger != "2.0" {
		t.Errorf("swagger = %q, want 2.0", doc.Swagger)
	}
	if _, ok := doc.Paths["/api/v1/recommendations"]["get"]; !ok {
		t.Error("GET /api/v1/recommendations is not documented")
	}
}

func TestSwagger_UI(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(http.MethodGet, "/swagger/index.html", "", nil)
	requireStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

// Every /api/v1 route registered on the router has a documented operation.
func TestSwagger_DocumentsEveryRoute(t *testing.T) {
	ts := setupTestServer(t)
	doc := fetchSwaggerDoc(t, ts)

	routes, ok := ts.handler.(chi.Routes)
	if !ok {
		t.Fatalf("router %T does not implement chi.Routes", ts.handler)
	}

	walked := 0
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, "/api/v1/") {
			return nil
		}
		walked++
		path := strings.TrimSuffix(route, "/")
		if _, ok := doc.Paths[path][strings.ToLower(method)]; !ok {
			t.Errorf("%s %s has no swagger operation", method, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("chi.Walk() error = %v", err)
	}
	if walked < 30 {
		t.Errorf("walked %d routes, want at least 30", walked)
	}
}
