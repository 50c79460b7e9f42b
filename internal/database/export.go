// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// exportedTables are the tables counted in a backup manifest.
var exportedTables = []string{"users", "authors", "genres", "books", "book_genres", "ratings", "audit_events"}

// ExportTo writes the whole database into dir with EXPORT DATABASE: one CSV
// file per table plus the schema.sql and load.sql scripts that IMPORT
// DATABASE reads back. dir must exist and be empty.
func (db *DB) ExportTo(ctx context.Context, dir string) (err error) {
	start := time.Now()
	defer func() { observe("export", "database", start, err) }()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("export directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("export path %s is not a directory", dir)
	}

	if db.cfg != nil && db.cfg.Path != ":memory:" {
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			return fmt.Errorf("checkpoint before export: %w", err)
		}
	}

	// EXPORT DATABASE takes a literal, not a bound parameter.
	stmt := fmt.Sprintf("EXPORT DATABASE '%s'", strings.ReplaceAll(dir, "'", "''"))
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// TableCounts returns the row count of every exported table.
func (db *DB) TableCounts(ctx context.Context) (counts map[string]int64, err error) {
	start := time.Now()
	defer func() { observe("select", "table_counts", start, err) }()

	counts = make(map[string]int64, len(exportedTables))
	for _, table := range exportedTables {
		var n int64
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
