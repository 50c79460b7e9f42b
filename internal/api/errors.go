// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/bookshelf/internal/backup"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

var (
	// ErrNotAuthenticated is returned when a handler needs an account and
	// the request carries none.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotOwner is returned when a user modifies another user's rating.
	ErrNotOwner = errors.New("rating belongs to another user")

	// ErrNothingToUpdate is returned for an update body with no fields.
	ErrNothingToUpdate = errors.New("no data to update")
)

// errorMapping is the HTTP form of a domain error.
type errorMapping struct {
	status  int
	code    string
	message string
}

// mapError translates storage and service errors. The message of a mapped
// error is safe to show to clients; unmapped errors are reported as 500
// without detail.
func mapError(err error, resource string) errorMapping {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return errorMapping{http.StatusUnauthorized, "AUTH_REQUIRED", "Not authenticated"}
	case errors.Is(err, ErrNotOwner):
		return errorMapping{http.StatusForbidden, "FORBIDDEN", "You can only modify your own ratings"}
	case errors.Is(err, ErrNothingToUpdate):
		return errorMapping{http.StatusBadRequest, "BAD_REQUEST", "No data to update"}

	case errors.Is(err, database.ErrGenresNotFound):
		return errorMapping{http.StatusNotFound, "NOT_FOUND", "One or more genres not found"}
	case errors.Is(err, database.ErrAuthorExists),
		errors.Is(err, database.ErrGenreExists),
		errors.Is(err, database.ErrEmailTaken),
		errors.Is(err, database.ErrUsernameTaken),
		errors.Is(err, database.ErrAlreadyRated):
		return errorMapping{http.StatusBadRequest, "CONFLICT", err.Error()}
	case errors.Is(err, database.ErrNotFound):
		return errorMapping{http.StatusNotFound, "NOT_FOUND", notFoundMessage(err, resource)}

	case errors.Is(err, recommend.ErrUnknownUser):
		return errorMapping{http.StatusNotFound, "USER_NOT_FOUND", "User not found"}
	case errors.Is(err, recommend.ErrCatalogUnavailable):
		return errorMapping{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Recommendations are temporarily unavailable"}
	case errors.Is(err, recommend.ErrInvalidScore):
		return errorMapping{http.StatusInternalServerError, "DATABASE_ERROR", "Stored ratings are invalid"}

	case errors.Is(err, backup.ErrBusy):
		return errorMapping{http.StatusConflict, "BACKUP_IN_PROGRESS", "A backup is already running"}
	case errors.Is(err, backup.ErrNotFound):
		return errorMapping{http.StatusNotFound, "NOT_FOUND", "Backup not found"}

	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Request timed out"}
	default:
		return errorMapping{http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"}
	}
}

// notFoundMessage names the missing resource. Book writes report a missing
// author through a wrapped "author N" prefix.
func notFoundMessage(err error, resource string) string {
	var target *database.NotFoundError
	if errors.As(err, &target) && target.Resource != "" {
		return capitalize(target.Resource) + " not found"
	}
	if resource == "" {
		return "Not found"
	}
	return capitalize(resource) + " not found"
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
