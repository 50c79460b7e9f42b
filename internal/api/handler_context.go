// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
handler_context.go - Request Context Helpers for Ownership Checks

Role checks happen in the casbin middleware before a handler runs. What the
policy cannot express is ownership: a rating may only be changed by the user
who wrote it. HandlerContext carries the caller and answers that question.

Usage:

	func (h *Handler) SomeHandler(w http.ResponseWriter, r *http.Request) {
	    hctx := GetHandlerContext(r)
	    if err := hctx.RequireOwner(rating.UserID); err != nil {
	        respondServiceError(w, r, err, "rating")
	        return
	    }
	}
*/

package api

import (
	"net/http"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

// HandlerContext provides request-scoped identity for handlers.
type HandlerContext struct {
	// User is the authenticated account, nil for anonymous requests.
	User *models.User

	// RequestID is the unique identifier for this request.
	RequestID string
}

// GetHandlerContext extracts the authentication context from an HTTP request.
// It never returns nil.
func GetHandlerContext(r *http.Request) *HandlerContext {
	user, _ := auth.UserFromContext(r.Context())
	return &HandlerContext{
		User:      user,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// IsAuthenticated returns true if the request has valid authentication.
func (hctx *HandlerContext) IsAuthenticated() bool {
	return hctx != nil && hctx.User != nil
}

// UserID returns the caller's id, or 0 for anonymous requests.
func (hctx *HandlerContext) UserID() int64 {
	if !hctx.IsAuthenticated() {
		return 0
	}
	return hctx.User.ID
}

// RequireUser returns ErrNotAuthenticated for anonymous requests.
func (hctx *HandlerContext) RequireUser() error {
	if !hctx.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireOwner returns ErrNotOwner unless the caller is ownerID. Admins get
// no exemption: ratings belong to whoever wrote them.
func (hctx *HandlerContext) RequireOwner(ownerID int64) error {
	if err := hctx.RequireUser(); err != nil {
		return err
	}
	if hctx.User.ID != ownerID {
		return ErrNotOwner
	}
	return nil
}

// requireUser writes a 401 and returns nil when the request is anonymous.
// Protected routes always pass through auth.Middleware first, so this only
// fires when a route is wired without it.
func requireUser(w http.ResponseWriter, r *http.Request) *HandlerContext {
	hctx := GetHandlerContext(r)
	if !hctx.IsAuthenticated() {
		auth.WriteUnauthorized(w, "AUTH_REQUIRED", "not authenticated")
		return nil
	}
	return hctx
}
