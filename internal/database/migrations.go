// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // What the migration does
	SQL         string    // Statements to execute
	AppliedAt   time.Time // Populated when read back from schema_migrations
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// migrations is append-only: never edit or remove an entry once released.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_catalog",
		Description: "Users, authors, genres, books, book genres and ratings",
		SQL: `
CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS authors_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS genres_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS books_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS ratings_id_seq START 1;

CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
	username VARCHAR NOT NULL UNIQUE,
	email VARCHAR NOT NULL UNIQUE,
	hashed_password VARCHAR NOT NULL,
	is_admin BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS authors (
	id BIGINT PRIMARY KEY DEFAULT nextval('authors_id_seq'),
	name VARCHAR NOT NULL,
	bio VARCHAR,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS genres (
	id BIGINT PRIMARY KEY DEFAULT nextval('genres_id_seq'),
	name VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	id BIGINT PRIMARY KEY DEFAULT nextval('books_id_seq'),
	title VARCHAR NOT NULL,
	publication_year INTEGER NOT NULL,
	author_id BIGINT NOT NULL,
	average_rating DOUBLE NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS book_genres (
	book_id BIGINT NOT NULL,
	genre_id BIGINT NOT NULL,
	PRIMARY KEY (book_id, genre_id)
);

CREATE TABLE IF NOT EXISTS ratings (
	id BIGINT PRIMARY KEY DEFAULT nextval('ratings_id_seq'),
	user_id BIGINT NOT NULL,
	book_id BIGINT NOT NULL,
	rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 10),
	review VARCHAR,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, book_id)
);
`,
	},
	{
		Version:     2,
		Name:        "rating_indexes",
		Description: "Indexes for per-book averages and per-user rating lists",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_ratings_book ON ratings(book_id);
CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);
CREATE INDEX IF NOT EXISTS idx_book_genres_genre ON book_genres(genre_id);
`,
	},
	{
		Version:     3,
		Name:        "create_audit_events",
		Description: "Security audit trail for logins, lockouts and account changes",
		SQL: `
CREATE TABLE IF NOT EXISTS audit_events (
	id VARCHAR PRIMARY KEY,
	timestamp TIMESTAMP NOT NULL,
	type VARCHAR NOT NULL,
	severity VARCHAR NOT NULL,
	outcome VARCHAR NOT NULL,
	actor_id BIGINT,
	actor_name VARCHAR,
	source_ip VARCHAR NOT NULL,
	user_agent VARCHAR,
	action VARCHAR NOT NULL,
	description VARCHAR NOT NULL,
	metadata JSON,
	request_id VARCHAR
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_type ON audit_events(type);
CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_events(actor_id);
`,
	},
}

// statements splits SQL on semicolons, dropping blank pieces.
func (m Migration) statements() []string {
	var out []string
	for _, stmt := range strings.Split(m.SQL, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func (db *DB) getMigrations() []Migration {
	return migrations
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

// getAppliedMigrations returns applied migrations keyed by version.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations applies every migration not yet recorded, each in
// its own transaction together with its schema_migrations row.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range db.getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		m := m
		err := db.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements() {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
				}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
				m.Version, m.Name, m.Description); err != nil {
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	history := make([]Migration, 0, len(applied))
	for _, m := range db.getMigrations() {
		if a, ok := applied[m.Version]; ok {
			history = append(history, a)
		}
	}
	return history, nil
}
