// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/audit"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// testDBSemaphore serializes DuckDB-backed handler tests.
var testDBSemaphore = make(chan struct{}, 1)

const testPassword = "correct-horse"

// testServer is a fully wired router over an in-memory database.
type testServer struct {
	t       *testing.T
	db      *database.DB
	handler http.Handler
	lockout *auth.LockoutManager
	recs    *recommend.Service
	api     *Handler

	adminToken string
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2},
		Security: config.SecurityConfig{
			SecretKey:                "test-secret-key-with-enough-entropy",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 30,
			BcryptCost:               4,
			RateLimitDisabled:        true,
			LockoutEnabled:           true,
			LockoutMaxAttempts:       3,
			LockoutDuration:          time.Minute,
		},
		API:       config.APIConfig{DefaultPageSize: 100, MaxPageSize: 1000},
		Recommend: config.RecommendConfig{Neighbors: 10, DefaultLimit: 10, MaxLimit: 100},
	}
}

// setupTestServer builds the router the way main does, with a seeded admin.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := testConfig()
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), auth.LockoutConfigFromSecurity(&cfg.Security))
	logger := logging.NewTestLogger(io.Discard)
	svc := recommend.NewService(recommend.NewEngine(logger), db, db, recommend.ServiceConfig{Neighbors: 10, SnapshotTTL: time.Minute}, logger)

	handler := NewHandler(db, svc, cfg, jwtManager, lockout)
	handler.SetAuditLogger(audit.NewLogger(audit.NewDuckDBStore(db.Conn()), &audit.Config{Enabled: true, RetentionDays: 90}))
	router := NewRouter(handler,
		NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&cfg.Security)),
		auth.NewMiddleware(jwtManager, db),
		authz.NewMiddleware(enforcer),
	)

	ts := &testServer{t: t, db: db, handler: router.SetupChi(), lockout: lockout, recs: svc, api: handler}

	hash, err := auth.HashPassword(testPassword, cfg.Security.BcryptCost)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.EnsureAdmin(context.Background(), "admin", "admin@example.com", hash); err != nil {
		t.Fatalf("EnsureAdmin() error = %v", err)
	}
	ts.adminToken = ts.login("admin@example.com", testPassword)
	return ts
}

// do sends a JSON request and returns the recorder.
func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				ts.t.Fatal(err)
			}
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// postForm sends an urlencoded form.
func (ts *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a reader through the API and returns a token for it.
func (ts *testServer) register(username string) (*models.User, string) {
	ts.t.Helper()
	email := username + "@example.com"
	rec := ts.do(http.MethodPost, "/api/v1/register", "", models.RegisterRequest{
		Email: email, Username: username, Password: testPassword,
	})
	requireStatus(ts.t, rec, http.StatusCreated)
	var user models.User
	decodeData(ts.t, rec, &user)
	return &user, ts.login(email, testPassword)
}

func (ts *testServer) login(email, password string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/login", "", models.LoginRequest{Email: email, Password: password})
	requireStatus(ts.t, rec, http.StatusOK)
	var token models.TokenResponse
	decodeData(ts.t, rec, &token)
	if token.AccessToken == "" || token.TokenType != "bearer" {
		ts.t.Fatalf("login returned %+v", token)
	}
	return token.AccessToken
}

// seedBook creates an author, a genre and a book directly in the database,
// then drops the cached recommendation snapshot as the API would.
func (ts *testServer) seedBook(title string) *models.Book {
	ts.t.Helper()
	ctx := context.Background()
	author, err := ts.db.CreateAuthor(ctx, &models.AuthorCreateRequest{Name: "Author of " + title})
	if err != nil {
		ts.t.Fatal(err)
	}
	genre, err := ts.db.CreateGenre(ctx, "Genre of "+title)
	if err != nil {
		ts.t.Fatal(err)
	}
	book, err := ts.db.CreateBook(ctx, &models.BookCreateRequest{
		Title: title, PublicationYear: 1990, AuthorID: author.ID, GenreIDs: []int64{genre.ID},
	})
	if err != nil {
		ts.t.Fatal(err)
	}
	ts.recs.Invalidate()
	return book
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

// envelope is models.APIResponse with Data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v; body = %s", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v; body = %s", err, rec.Body.String())
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatalf("response has no error body: %s", rec.Body.String())
	}
	return env.Error.Code
}
