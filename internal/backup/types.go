// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package backup

import (
	"context"
	"time"
)

// Trigger records what started a backup.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// Backup describes one archive on disk.
type Backup struct {
	ID        string    `json:"id"`
	Trigger   Trigger   `json:"trigger"`
	CreatedAt time.Time `json:"created_at"`

	// DurationMS covers export and compression.
	DurationMS int64 `json:"duration_ms"`

	// FileName is relative to the backup directory.
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`

	// Checksum is the hex SHA-256 of the archive file.
	Checksum string `json:"checksum"`

	AppVersion    string           `json:"app_version"`
	SchemaVersion int              `json:"schema_version"`
	RowCounts     map[string]int64 `json:"row_counts"`

	// CreatedBy is the admin id for manual backups.
	CreatedBy *int64 `json:"created_by,omitempty"`
}

// Exporter is the database surface a backup needs. *database.DB
// implements it.
type Exporter interface {
	ExportTo(ctx context.Context, dir string) error
	TableCounts(ctx context.Context) (map[string]int64, error)
	GetCurrentSchemaVersion(ctx context.Context) (int, error)
}

// Config holds backup settings.
type Config struct {
	// Dir holds the archives and metadata.json.
	Dir string

	// Interval between scheduled backups. Zero disables the schedule;
	// manual backups still work.
	Interval time.Duration

	// Retain is how many archives to keep. Older ones are pruned after
	// each successful backup.
	Retain int

	// AppVersion is written into each manifest.
	AppVersion string
}
