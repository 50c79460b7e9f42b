// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package audit records security-relevant events: registrations, logins,
failed logins, lockouts and admin account seeding.

Events go through a Logger, which filters by severity and hands them to a
Store. With a positive BufferSize the Logger writes from a background
goroutine and drops events when the buffer is full; with BufferSize 0 it
writes inline.

	store := audit.NewDuckDBStore(db.Conn())
	auditLog := audit.NewLogger(store, audit.DefaultConfig())
	defer auditLog.Close()

	auditLog.LogLoginFailure(r, "reader@example.com", "invalid_credentials")

Stores:
  - DuckDBStore: the audit_events table created by the database migrations
  - MemoryStore: bounded in-process slice, for tests and development

Retention: Logger.Cleanup deletes events older than RetentionDays. It
satisfies the supervisor's Cleaner interface and runs once a day.

A nil *Logger is valid and discards everything.
*/
package audit
