// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

// EnsureAdmin creates the configured admin account if no user holds its
// username or email yet. An existing account with that username is promoted
// to admin; its password is left alone. The returned bool reports whether a
// new row was inserted.
func (db *DB) EnsureAdmin(ctx context.Context, username, email, hashedPassword string) (user *models.User, created bool, err error) {
	start := time.Now()
	defer func() { observe("upsert", "users", start, err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1`,
			username, email)
		existing, scanErr := scanUser(row)
		switch {
		case scanErr == nil:
			if !existing.IsAdmin {
				if _, err := tx.ExecContext(ctx, `UPDATE users SET is_admin = true WHERE id = ?`, existing.ID); err != nil {
					return fmt.Errorf("failed to promote admin: %w", err)
				}
				existing.IsAdmin = true
				logging.Info().Int64("user_id", existing.ID).Str("username", existing.Username).Msg("Existing user promoted to admin")
			}
			user = existing
			return nil
		case errors.Is(scanErr, sql.ErrNoRows):
		default:
			return fmt.Errorf("failed to look up admin: %w", scanErr)
		}

		user = &models.User{
			Email:          email,
			Username:       username,
			HashedPassword: hashedPassword,
			IsAdmin:        true,
		}
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		logging.Info().Int64("user_id", user.ID).Str("username", username).Msg("Admin account created")
	}
	return user, created, nil
}
