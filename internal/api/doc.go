// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package api provides the HTTP interface of Bookshelf.
//
// # Routing
//
// Routes are mounted under /api/v1 by the chi router in chi_router.go:
//
//	POST   /register, /login          accounts and access tokens
//	GET    /me                        current account
//	/authors, /genres, /books         catalog CRUD
//	/ratings                          per-user ratings
//	GET    /recommendations           collaborative recommendations
//	GET    /health                    database ping
//	GET    /metrics                   Prometheus exposition (root path)
//
// # Response Format
//
// Every endpoint returns models.APIResponse:
//
//	{"status": "success", "data": {...}, "metadata": {"timestamp": "..."}}
//	{"status": "error", "data": null, "metadata": {...}, "error": {"code": "NOT_FOUND", "message": "..."}}
//
// Delete endpoints return 204 with no body.
//
// # Errors
//
// Storage and service sentinels are translated in errors.go. Handlers call
// respondServiceError for anything returned by the store so that every
// endpoint maps the same condition to the same status and code.
package api
