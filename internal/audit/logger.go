// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package audit

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// Config holds audit logger settings.
type Config struct {
	Enabled bool

	// MinSeverity drops events below this level.
	MinSeverity Severity

	// RetentionDays is how long Cleanup keeps events.
	RetentionDays int

	// BufferSize is the async queue length. Zero writes inline.
	BufferSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MinSeverity:   SeverityInfo,
		RetentionDays: 90,
		BufferSize:    1000,
	}
}

// Logger records audit events to a Store.
type Logger struct {
	config Config
	store  Store

	events   chan *Event
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLogger creates a logger. A nil config uses DefaultConfig.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	l := &Logger{
		config: *config,
		store:  store,
		stop:   make(chan struct{}),
	}
	if l.config.MinSeverity == "" {
		l.config.MinSeverity = SeverityInfo
	}
	if l.config.BufferSize > 0 {
		l.events = make(chan *Event, l.config.BufferSize)
		l.wg.Add(1)
		go l.asyncWriter()
	}
	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stop:
			for {
				select {
				case event := <-l.events:
					l.writeEvent(event)
				default:
					return
				}
			}
		case event := <-l.events:
			l.writeEvent(event)
		}
	}
}

func (l *Logger) writeEvent(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		metrics.AuditEventsDropped.Inc()
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues(string(event.Type), string(event.Outcome)).Inc()
}

// Log records event, filling in ID and Timestamp when unset.
func (l *Logger) Log(event *Event) {
	if l == nil || !l.config.Enabled || l.store == nil {
		return
	}
	if severityRank[event.Severity] < severityRank[l.config.MinSeverity] {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if l.events == nil {
		l.writeEvent(event)
		return
	}
	select {
	case l.events <- event:
	default:
		metrics.AuditEventsDropped.Inc()
		logging.Warn().Str("event_id", event.ID).Msg("Audit event buffer full, dropping event")
	}
}

// Close flushes queued events and stops the writer. It is safe to call
// more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.stopOnce.Do(func() { close(l.stop) })
	l.wg.Wait()
	return nil
}

// Cleanup deletes events older than the retention period.
func (l *Logger) Cleanup(ctx context.Context) (int, error) {
	if l == nil || l.store == nil || l.config.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)
	n, err := l.store.DeleteBefore(ctx, cutoff)
	return int(n), err
}

// Query returns stored events matching filter, newest first.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l == nil || l.store == nil {
		return []Event{}, nil
	}
	return l.store.Query(ctx, filter)
}

// LogLoginSuccess records a successful login.
func (l *Logger) LogLoginSuccess(r *http.Request, userID int64, username string) {
	e := fromRequest(r)
	e.Type = EventTypeAuthSuccess
	e.Severity = SeverityInfo
	e.Outcome = OutcomeSuccess
	e.ActorID = &userID
	e.ActorName = username
	e.Action = "login"
	e.Description = "User logged in"
	l.Log(e)
}

// LogLoginFailure records a rejected login. reason is a short code such as
// "invalid_credentials" or "locked".
func (l *Logger) LogLoginFailure(r *http.Request, email, reason string) {
	e := fromRequest(r)
	e.Type = EventTypeAuthFailure
	e.Severity = SeverityWarning
	e.Outcome = OutcomeFailure
	e.ActorName = email
	e.Action = "login"
	e.Description = "Login rejected: " + reason
	e.Metadata = mustJSON(map[string]string{"reason": reason})
	l.Log(e)
}

// LogLockout records an account being locked by repeated failures.
func (l *Logger) LogLockout(r *http.Request, email string, duration time.Duration) {
	e := fromRequest(r)
	e.Type = EventTypeAuthLockout
	e.Severity = SeverityCritical
	e.Outcome = OutcomeSuccess
	e.ActorName = email
	e.Action = "lockout"
	e.Description = "Account locked after repeated failed logins"
	e.Metadata = mustJSON(map[string]float64{"duration_seconds": duration.Seconds()})
	l.Log(e)
}

// LogUserCreated records a self-registration.
func (l *Logger) LogUserCreated(r *http.Request, userID int64, username string) {
	e := fromRequest(r)
	e.Type = EventTypeUserCreated
	e.Severity = SeverityInfo
	e.Outcome = OutcomeSuccess
	e.ActorID = &userID
	e.ActorName = username
	e.Action = "register"
	e.Description = "Account registered"
	l.Log(e)
}

// LogBackup records an admin-triggered backup. A non-nil err marks it failed.
func (l *Logger) LogBackup(r *http.Request, actorID int64, actorName, backupID string, err error) {
	e := fromRequest(r)
	e.Type = EventTypeBackup
	e.Severity = SeverityInfo
	e.Outcome = OutcomeSuccess
	e.ActorID = &actorID
	e.ActorName = actorName
	e.Action = "backup"
	e.Description = "Manual backup created"
	if err != nil {
		e.Severity = SeverityWarning
		e.Outcome = OutcomeFailure
		e.Description = "Manual backup failed"
		e.Metadata = mustJSON(map[string]string{"error": err.Error()})
	} else {
		e.Metadata = mustJSON(map[string]string{"backup_id": backupID})
	}
	l.Log(e)
}

// LogAdminSeeded records the startup admin seed. It has no request.
func (l *Logger) LogAdminSeeded(userID int64, username string, created bool) {
	l.Log(&Event{
		Type:        EventTypeRoleAssigned,
		Severity:    SeverityWarning,
		Outcome:     OutcomeSuccess,
		ActorID:     &userID,
		ActorName:   username,
		SourceIP:    "system",
		Action:      "seed_admin",
		Description: "Admin role granted at startup",
		Metadata:    mustJSON(map[string]bool{"created": created}),
	})
}

// fromRequest fills the source fields. RemoteAddr has already been
// rewritten by the RealIP middleware.
func fromRequest(r *http.Request) *Event {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return &Event{
		SourceIP:  ip,
		UserAgent: r.UserAgent(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
