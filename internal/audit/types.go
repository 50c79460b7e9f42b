// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeAuthSuccess  EventType = "auth.success"
	EventTypeAuthFailure  EventType = "auth.failure"
	EventTypeAuthLockout  EventType = "auth.lockout"
	EventTypeUserCreated  EventType = "user.created"
	EventTypeRoleAssigned EventType = "user.role_assigned"
	EventTypeBackup       EventType = "backup.created"
)

// ValidEventType reports whether t is one of the known event types.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeAuthSuccess, EventTypeAuthFailure, EventTypeAuthLockout,
		EventTypeUserCreated, EventTypeRoleAssigned, EventTypeBackup:
		return true
	}
	return false
}

// Severity orders events for filtering.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityCritical: 2,
}

// Outcome records whether the audited action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Outcome   Outcome   `json:"outcome"`

	// ActorID is nil when no account was resolved, e.g. a login for an
	// unknown email.
	ActorID *int64 `json:"actor_id,omitempty"`

	// ActorName is the username, or the submitted email for failed logins.
	ActorName string `json:"actor_name,omitempty"`

	SourceIP    string          `json:"source_ip"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// DeleteBefore removes events older than cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// QueryFilter narrows an audit query. Zero fields do not filter.
type QueryFilter struct {
	Types   []EventType
	Outcome Outcome
	ActorID *int64
	Since   *time.Time
	Limit   int
	Offset  int
}

const defaultQueryLimit = 100

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return defaultQueryLimit
	}
	return f.Limit
}
