// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/audit"
	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/backup"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/recommend"
	"github.com/tomtom215/bookshelf/internal/websocket"
)

// Store is the persistence surface used by the handlers. *database.DB
// implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAuthor(ctx context.Context, req *models.AuthorCreateRequest) (*models.Author, error)
	GetAuthor(ctx context.Context, id int64) (*models.Author, error)
	ListAuthors(ctx context.Context, skip, limit int) ([]models.Author, error)
	UpdateAuthor(ctx context.Context, id int64, req *models.AuthorUpdateRequest) (*models.Author, error)
	DeleteAuthor(ctx context.Context, id int64) error

	CreateGenre(ctx context.Context, name string) (*models.Genre, error)
	GetGenre(ctx context.Context, id int64) (*models.Genre, error)
	ListGenres(ctx context.Context, skip, limit int) ([]models.Genre, error)
	UpdateGenre(ctx context.Context, id int64, name string) (*models.Genre, error)
	DeleteGenre(ctx context.Context, id int64) error

	CreateBook(ctx context.Context, req *models.BookCreateRequest) (*models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	ListBooks(ctx context.Context, filter models.BookFilter) ([]models.Book, error)
	UpdateBook(ctx context.Context, id int64, req *models.BookUpdateRequest) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error

	CreateRating(ctx context.Context, userID int64, req *models.RatingCreateRequest) (*models.Rating, error)
	GetRating(ctx context.Context, id int64) (*models.Rating, error)
	ListUserRatings(ctx context.Context, userID int64, skip, limit int) ([]models.Rating, error)
	UpdateRating(ctx context.Context, id int64, req *models.RatingUpdateRequest) (*models.Rating, error)
	DeleteRating(ctx context.Context, id int64) error
}

// Recommender produces a page of recommendations. *recommend.Service
// implements it.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, skip, limit int) (*recommend.Response, error)
	BreakerState() string

	// Invalidate discards cached ratings after a write.
	Invalidate()
}

// Backups creates and serves database archives. *backup.Manager
// implements it.
type Backups interface {
	Create(ctx context.Context, trigger backup.Trigger, createdBy *int64) (*backup.Backup, error)
	List() []backup.Backup
	Path(id string) (string, error)
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files by resource:
//   - handlers_auth.go: register, login, me
//   - handlers_authors.go, handlers_genres.go, handlers_books.go: catalog CRUD
//   - handlers_ratings.go: ratings owned by the caller
//   - handlers_recommend.go: recommendations
//   - handlers_health.go: health
//   - handlers_audit.go: security audit trail
//   - handlers_backups.go: database backups
//   - handlers_changes.go: websocket change feed
type Handler struct {
	store       Store
	recommender Recommender
	config      *config.Config
	jwtManager  *auth.JWTManager
	lockout     *auth.LockoutManager
	auditLog    *audit.Logger
	backups     Backups
	hub         *websocket.Hub
	startTime   time.Time
}

// NewHandler creates a new API handler with all required dependencies.
// lockout may be nil, which disables account lockout on login.
//
// Example:
//
//	handler := api.NewHandler(db, recommender, cfg, jwtManager, lockout)
//	router := api.NewRouter(handler, api.NewChiMiddleware(cfg), authMW, authzMW)
//	http.ListenAndServe(":8000", router.SetupChi())
func NewHandler(store Store, recommender Recommender, cfg *config.Config, jwtManager *auth.JWTManager, lockout *auth.LockoutManager) *Handler {
	return &Handler{
		store:       store,
		recommender: recommender,
		config:      cfg,
		jwtManager:  jwtManager,
		lockout:     lockout,
		startTime:   time.Now(),
	}
}

// invalidateRecommendations is called after writes that add or remove
// users, books or ratings.
func (h *Handler) invalidateRecommendations() {
	if h.recommender != nil {
		h.recommender.Invalidate()
	}
}

// SetAuditLogger enables the security audit trail. Without one, audit
// events are discarded and the audit endpoint returns 503.
func (h *Handler) SetAuditLogger(logger *audit.Logger) {
	h.auditLog = logger
}

// SetBackups enables the backup endpoints, which otherwise return 503.
func (h *Handler) SetBackups(b Backups) {
	h.backups = b
}

// SetChangeFeed enables the websocket change feed. Without a hub, writes
// are not broadcast and the feed endpoint returns 503.
func (h *Handler) SetChangeFeed(hub *websocket.Hub) {
	h.hub = hub
}

// publish announces a successful write on the change feed. bookID is set
// for ratings only.
func (h *Handler) publish(resource, action string, id, bookID int64) {
	if h.hub != nil {
		h.hub.BroadcastChange(resource, action, id, bookID)
	}
}

// catalogPage parses skip/limit for catalog and rating lists.
func (h *Handler) catalogPage(r *http.Request) (pagination, error) {
	defaultLimit, maxLimit := 100, 1000
	if h.config != nil {
		if h.config.API.DefaultPageSize > 0 {
			defaultLimit = h.config.API.DefaultPageSize
		}
		if h.config.API.MaxPageSize > 0 {
			maxLimit = h.config.API.MaxPageSize
		}
	}
	return parsePagination(r, defaultLimit, maxLimit)
}

// recommendPage parses skip/limit for recommendations.
func (h *Handler) recommendPage(r *http.Request) (pagination, error) {
	defaultLimit, maxLimit := 10, 100
	if h.config != nil {
		if h.config.Recommend.DefaultLimit > 0 {
			defaultLimit = h.config.Recommend.DefaultLimit
		}
		if h.config.Recommend.MaxLimit > 0 {
			maxLimit = h.config.Recommend.MaxLimit
		}
	}
	return parsePagination(r, defaultLimit, maxLimit)
}

func (h *Handler) bcryptCost() int {
	if h.config != nil && h.config.Security.BcryptCost > 0 {
		return h.config.Security.BcryptCost
	}
	return 0
}
