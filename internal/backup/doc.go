// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package backup writes point-in-time archives of the DuckDB database.

Each backup runs EXPORT DATABASE into a staging directory inside the
backup directory, then packs the export into a gzipped tar:

	bookshelf-20260301T020000Z-1a2b3c4d.tar.gz
	├── manifest.json        id, schema version, row counts
	└── database/
	    ├── schema.sql
	    ├── load.sql
	    └── <table>.csv

The archive's SHA-256 and size go into metadata.json next to the archives.
After every successful backup the oldest archives beyond Config.Retain are
deleted.

# Restore

Restore is an offline operation: stop the server, unpack an archive and run
IMPORT DATABASE 'database' against an empty file at DUCKDB_PATH.

# Scheduling

Manager implements suture.Service. main adds it to the maintenance layer
when BACKUP_INTERVAL is positive. Admins can also trigger a backup through
POST /api/v1/admin/backups.
*/
package backup
