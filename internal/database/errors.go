// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/bookshelf/internal/logging"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	ErrAuthorExists  = errors.New("author with this name already exists")
	ErrGenreExists   = errors.New("genre with this name already exists")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")

	// ErrAlreadyRated is returned for a second rating of one book by one user.
	ErrAlreadyRated = errors.New("book already rated by this user")

	// ErrGenresNotFound is returned when a book references a missing genre.
	ErrGenresNotFound = errors.New("one or more genres not found")
)

// NotFoundError names a missing row referenced by another resource, such
// as the author of a book. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Resource, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// closeWithLog closes a resource and logs a failure without returning it.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource in an error path where the Close error
// is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueConstraintError matches DuckDB's unique and primary key violations.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// ignoreNotFound drops ErrNotFound so that misses are not counted as query
// errors in metrics.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// nullableString converts an optional string to a bind argument.
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
