// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestChiMiddleware_RateLimit(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	handler := mw.RateLimit()(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
		requireStatus(t, rec, http.StatusOK)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
	requireStatus(t, rec, http.StatusTooManyRequests)
	if code := errorCode(t, rec); code != "RATE_LIMITED" {
		t.Errorf("code = %s", code)
	}

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusOK)
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
	handler := mw.RateLimit()(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		requireStatus(t, rec, http.StatusOK)
	}
}

func TestChiMiddleware_CORS(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://books.example.com"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	handler := mw.CORS()(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://books.example.com", "https://books.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", "POST")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChiMiddlewareConfigFromSecurity(t *testing.T) {
	cfg := ChiMiddlewareConfigFromSecurity(&config.SecurityConfig{
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitReqs:   50,
		RateLimitWindow: 30 * time.Second,
		LoginRateLimit:  5,
	})
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.RateLimitRequests != 50 || cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.LoginRateLimit != 5 || cfg.RateLimitDisabled {
		t.Errorf("login/disabled = %d/%v", cfg.LoginRateLimit, cfg.RateLimitDisabled)
	}

	def := ChiMiddlewareConfigFromSecurity(nil)
	if def.RateLimitRequests != 100 {
		t.Errorf("nil security should give defaults, got %+v", def)
	}
}

func TestRouter_LoginLimiter(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil)

	withLimit := NewRouter(h, NewChiMiddleware(&ChiMiddlewareConfig{LoginRateLimit: 2}), nil, nil)
	if withLimit.LoginLimiter() == nil {
		t.Fatal("expected a login limiter")
	}
	defer withLimit.LoginLimiter().Stop()

	ip := "203.0.113.9"
	if !withLimit.LoginLimiter().Allow(ip) || !withLimit.LoginLimiter().Allow(ip) {
		t.Error("first two attempts should pass")
	}
	if withLimit.LoginLimiter().Allow(ip) {
		t.Error("third attempt should be limited")
	}

	disabled := NewRouter(h, NewChiMiddleware(&ChiMiddlewareConfig{LoginRateLimit: 2, RateLimitDisabled: true}), nil, nil)
	if disabled.LoginLimiter() != nil {
		t.Error("limiter should be nil when rate limiting is disabled")
	}
}

func TestHandlerContext(t *testing.T) {
	owner := &models.User{ID: 5}

	anon := GetHandlerContext(httptest.NewRequest(http.MethodGet, "/", nil))
	if anon.IsAuthenticated() || anon.UserID() != 0 {
		t.Error("anonymous context reports a user")
	}
	if err := anon.RequireOwner(5); err != ErrNotAuthenticated {
		t.Errorf("RequireOwner() = %v, want ErrNotAuthenticated", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithUser(req.Context(), owner))
	hctx := GetHandlerContext(req)
	if err := hctx.RequireOwner(5); err != nil {
		t.Errorf("RequireOwner(self) = %v", err)
	}
	if err := hctx.RequireOwner(6); err != ErrNotOwner {
		t.Errorf("RequireOwner(other) = %v, want ErrNotOwner", err)
	}
}
