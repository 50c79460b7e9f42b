// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/database/query"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// DuckDBStore persists events in the audit_events table. The table is
// created by the database migrations.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps an open DuckDB connection pool.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

const eventColumns = `id, timestamp, type, severity, outcome, actor_id, actor_name,
	source_ip, user_agent, action, description, CAST(metadata AS VARCHAR), request_id`

func (s *DuckDBStore) Save(ctx context.Context, event *Event) (err error) {
	if event == nil {
		return fmt.Errorf("audit event cannot be nil")
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "audit_events", time.Since(start), err) }()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, timestamp, type, severity, outcome, actor_id, actor_name,
			source_ip, user_agent, action, description, metadata, request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.UTC(),
		string(event.Type),
		string(event.Severity),
		string(event.Outcome),
		nullableInt64(event.ActorID),
		nullableString(event.ActorName),
		event.SourceIP,
		nullableString(event.UserAgent),
		event.Action,
		event.Description,
		nullableString(string(event.Metadata)),
		nullableString(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) (events []Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "audit_events", time.Since(start), err) }()

	where, args := buildWhere(filter)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM audit_events `+where+
			` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events = []Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

func (s *DuckDBStore) DeleteBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "audit_events", time.Since(start), err) }()

	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted audit events: %w", err)
	}
	return n, nil
}

func buildWhere(f QueryFilter) (string, []interface{}) {
	wb := query.NewWhereBuilder()
	if len(f.Types) > 0 {
		placeholders := make([]string, len(f.Types))
		args := make([]interface{}, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args[i] = string(t)
		}
		wb.AddClause("type IN ("+strings.Join(placeholders, ", ")+")", args...)
	}
	if f.Outcome != "" {
		wb.AddClause("outcome = ?", string(f.Outcome))
	}
	wb.AddEquals("actor_id", f.ActorID)
	if f.Since != nil {
		wb.AddClause("timestamp >= ?", f.Since.UTC())
	}
	return wb.BuildWithPrefix()
}

func scanEvent(rows *sql.Rows) (*Event, error) {
	var (
		e                                     Event
		eventType, severity, outcome          string
		actorID                               sql.NullInt64
		actorName, userAgent, meta, requestID sql.NullString
	)
	if err := rows.Scan(
		&e.ID, &e.Timestamp, &eventType, &severity, &outcome, &actorID, &actorName,
		&e.SourceIP, &userAgent, &e.Action, &e.Description, &meta, &requestID,
	); err != nil {
		return nil, err
	}
	e.Type = EventType(eventType)
	e.Severity = Severity(severity)
	e.Outcome = Outcome(outcome)
	if actorID.Valid {
		id := actorID.Int64
		e.ActorID = &id
	}
	e.ActorName = actorName.String
	e.UserAgent = userAgent.String
	e.RequestID = requestID.String
	if meta.Valid && meta.String != "" {
		e.Metadata = json.RawMessage(meta.String)
	}
	return &e, nil
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
