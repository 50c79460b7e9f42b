// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/authz"
	"github.com/tomtom215/bookshelf/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler         *Handler
	authMiddleware  *auth.Middleware
	authzMiddleware *authz.Middleware
	chiMiddleware   *ChiMiddleware
	loginLimiter    *auth.RateLimiter
}

// NewRouter creates a router. chiMw may be nil for the defaults.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, authMw *auth.Middleware, authzMw *authz.Middleware) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	router := &Router{
		handler:         handler,
		authMiddleware:  authMw,
		authzMiddleware: authzMw,
		chiMiddleware:   chiMw,
	}

	cfg := chiMw.Config()
	if n := cfg.LoginRateLimit; n > 0 && !cfg.RateLimitDisabled {
		router.loginLimiter = auth.NewRateLimiter(n, time.Minute/time.Duration(n))
	}
	return router
}

// LoginLimiter returns the per-IP login limiter, or nil when disabled. Its
// StartCleanup loop is run by the supervisor.
func (router *Router) LoginLimiter() *auth.RateLimiter {
	return router.loginLimiter
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(auth.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Get("/health", router.handler.Health)
		router.registerAuthRoutes(r)
		router.registerAuthorRoutes(r)
		router.registerGenreRoutes(r)
		router.registerBookRoutes(r)
		router.registerRatingRoutes(r)
		router.registerRecommendRoutes(r)
		r.With(router.can(authz.ObjectChanges, authz.ActionRead)...).Get("/changes", router.handler.ChangeFeed)
		router.registerAdminRoutes(r)
	})

	return r
}

// can requires a token and a casbin grant for object/action.
func (router *Router) can(object, action string) chi.Middlewares {
	return chi.Middlewares{
		router.authMiddleware.Authenticate,
		router.authzMiddleware.Require(object, action),
	}
}

func (router *Router) registerAuthRoutes(r chi.Router) {
	r.Post("/register", router.handler.Register)

	login := http.Handler(http.HandlerFunc(router.handler.Login))
	if router.loginLimiter != nil {
		login = router.loginLimiter.Middleware(login)
	}
	r.Method(http.MethodPost, "/login", login)

	r.With(router.can(authz.ObjectProfile, authz.ActionRead)...).Get("/me", router.handler.Me)
}

func (router *Router) registerAuthorRoutes(r chi.Router) {
	r.Route("/authors", func(r chi.Router) {
		r.Get("/", router.handler.ListAuthors)
		r.Get("/{id}", router.handler.GetAuthor)

		r.Group(func(r chi.Router) {
			r.Use(router.can(authz.ObjectAuthors, authz.ActionWrite)...)
			r.Post("/", router.handler.CreateAuthor)
			r.Put("/{id}", router.handler.UpdateAuthor)
			r.Delete("/{id}", router.handler.DeleteAuthor)
		})
	})
}

func (router *Router) registerGenreRoutes(r chi.Router) {
	r.Route("/genres", func(r chi.Router) {
		r.Get("/", router.handler.ListGenres)
		r.Get("/{id}", router.handler.GetGenre)

		r.Group(func(r chi.Router) {
			r.Use(router.can(authz.ObjectGenres, authz.ActionWrite)...)
			r.Post("/", router.handler.CreateGenre)
			r.Put("/{id}", router.handler.UpdateGenre)
			r.Delete("/{id}", router.handler.DeleteGenre)
		})
	})
}

func (router *Router) registerBookRoutes(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", router.handler.ListBooks)
		r.Get("/{id}", router.handler.GetBook)

		r.Group(func(r chi.Router) {
			r.Use(router.can(authz.ObjectBooks, authz.ActionWrite)...)
			r.Post("/", router.handler.CreateBook)
			r.Put("/{id}", router.handler.UpdateBook)
			r.Delete("/{id}", router.handler.DeleteBook)
		})
	})
}

func (router *Router) registerRatingRoutes(r chi.Router) {
	r.Route("/ratings", func(r chi.Router) {
		r.Get("/{id}", router.handler.GetRating)
		r.With(router.can(authz.ObjectRatings, authz.ActionRead)...).Get("/", router.handler.ListMyRatings)

		r.Group(func(r chi.Router) {
			r.Use(router.can(authz.ObjectRatings, authz.ActionWrite)...)
			r.Post("/", router.handler.CreateRating)
			r.Put("/{id}", router.handler.UpdateRating)
			r.Delete("/{id}", router.handler.DeleteRating)
		})
	})
}

func (router *Router) registerRecommendRoutes(r chi.Router) {
	r.With(router.can(authz.ObjectRecommendations, authz.ActionRead)...).
		Get("/recommendations", router.handler.Recommendations)
}

func (router *Router) registerAdminRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.With(router.can(authz.ObjectAudit, authz.ActionRead)...).
			Get("/audit-events", router.handler.ListAuditEvents)

		r.Route("/backups", func(r chi.Router) {
			r.With(router.can(authz.ObjectBackups, authz.ActionRead)...).Get("/", router.handler.ListBackups)
			r.With(router.can(authz.ObjectBackups, authz.ActionWrite)...).Post("/", router.handler.CreateBackup)
			r.With(router.can(authz.ObjectBackups, authz.ActionRead)...).Get("/{id}/download", router.handler.DownloadBackup)
		})
	})
}
