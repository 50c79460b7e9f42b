// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package main is the entry point for the Bookshelf server.

Bookshelf is a book catalog with user ratings and user-user collaborative
filtering recommendations, served as a JSON API under /api/v1.

# Startup

 1. Configuration: koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog, JSON or console output
 3. Database: DuckDB, versioned migrations run on open
 4. Audit trail: security events stored in DuckDB (AUDIT_ENABLED)
 5. Admin seed: ADMIN_USER / ADMIN_EMAIL / ADMIN_PASS, if all are set
 6. Security: JWT manager, login lockout (memory or badger), casbin enforcer
 7. Recommendations: engine plus circuit-breaking service with a snapshot cache
 8. Change feed: websocket hub broadcasting catalog and rating writes
 9. Backups: EXPORT DATABASE archives (BACKUP_ENABLED), scheduled and on demand
 10. Supervisor tree: suture v4

The tree looks like this:

	RootSupervisor ("bookshelf")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── lockout-cleanup
	│   ├── login-limiter-cleanup
	│   ├── recommend-cache-cleanup
	│   ├── audit-retention
	│   └── scheduled-backup
	└── APISupervisor ("api-layer")
	    ├── change-feed
	    └── http-server

# Configuration

Environment variables override the config file, which overrides defaults:

	HTTP_PORT=8000
	DUCKDB_PATH=/data/bookshelf.duckdb
	SECRET_KEY=<32+ chars>
	ACCESS_TOKEN_EXPIRE_MINUTES=30
	ADMIN_USER=admin ADMIN_EMAIL=admin@example.com ADMIN_PASS=<password>
	LOCKOUT_STORE_PATH=/data/lockout   # empty keeps lockout state in memory
	RECOMMEND_NEIGHBORS=10 RECOMMEND_SNAPSHOT_TTL=30s
	AUDIT_ENABLED=true AUDIT_RETENTION_DAYS=90
	BACKUP_ENABLED=true BACKUP_DIR=/data/backups BACKUP_INTERVAL=24h BACKUP_RETAIN=7
	LOG_LEVEL=info LOG_FORMAT=json

CONFIG_PATH points at a YAML file with the same keys, nested by section.

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server then gets 10s
to finish in-flight requests. Queued audit events are flushed before the
database and lockout store close.
*/
package main
