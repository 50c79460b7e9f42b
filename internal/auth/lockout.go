// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

var (
	// ErrLockoutNotFound is returned by a LockoutStore for an unknown subject.
	ErrLockoutNotFound = errors.New("lockout entry not found")

	// ErrAccountLocked is returned when a login is refused because of lockout.
	ErrAccountLocked = errors.New("account temporarily locked due to too many failed attempts")
)

const (
	// entryRetention is how long an unlocked entry outlives its last failure.
	entryRetention = 24 * time.Hour

	defaultMaxAttempts     = 5
	defaultLockoutDuration = 15 * time.Minute
	maxLockoutDuration     = 24 * time.Hour
)

// LockoutConfig controls login lockout.
type LockoutConfig struct {
	Enabled bool

	// MaxAttempts consecutive failures lock the subject.
	MaxAttempts int

	// Duration is the first lockout period. Each further lockout of the same
	// subject doubles it, up to MaxDuration. MaxDuration <= Duration turns
	// the doubling off.
	Duration    time.Duration
	MaxDuration time.Duration

	// TrackByIP also counts failures per client IP, so one address cycling
	// through emails is locked as well.
	TrackByIP bool
}

// LockoutConfigFromSecurity builds the lockout settings from config. Zero
// values take the defaults.
func LockoutConfigFromSecurity(cfg *config.SecurityConfig) LockoutConfig {
	lc := LockoutConfig{
		Enabled:     cfg.LockoutEnabled,
		MaxAttempts: defaultMaxAttempts,
		Duration:    defaultLockoutDuration,
		MaxDuration: maxLockoutDuration,
		TrackByIP:   true,
	}
	if cfg.LockoutMaxAttempts > 0 {
		lc.MaxAttempts = cfg.LockoutMaxAttempts
	}
	if cfg.LockoutDuration > 0 {
		lc.Duration = cfg.LockoutDuration
	}
	return lc
}

// period returns how long the n-th lockout (0-based) of a subject lasts.
func (c LockoutConfig) period(n int) time.Duration {
	if c.MaxDuration <= c.Duration || n <= 0 {
		return c.Duration
	}
	d := c.Duration
	for i := 0; i < n; i++ {
		d *= 2
		if d >= c.MaxDuration || d <= 0 {
			return c.MaxDuration
		}
	}
	return d
}

// LockoutEntry is the failure history of one subject: a lowercased email or
// "ip:<address>".
type LockoutEntry struct {
	Subject        string    `json:"subject"`
	FailedAttempts int       `json:"failed_attempts"`
	LastAttempt    time.Time `json:"last_attempt"`
	LockoutCount   int       `json:"lockout_count"`
	LockedUntil    time.Time `json:"locked_until"`
}

func (e *LockoutEntry) lockedAt(now time.Time) bool {
	return now.Before(e.LockedUntil)
}

// expiredAt reports whether the entry is unlocked and idle past retention.
func (e *LockoutEntry) expiredAt(now time.Time) bool {
	return !e.lockedAt(now) && e.LastAttempt.Before(now.Add(-entryRetention))
}

// LockoutStore persists lockout entries.
type LockoutStore interface {
	Get(ctx context.Context, subject string) (*LockoutEntry, error)
	Put(ctx context.Context, entry *LockoutEntry) error
	Delete(ctx context.Context, subject string) error

	// DeleteExpired removes entries expired at now and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// LockoutManager applies LockoutConfig to login attempts.
type LockoutManager struct {
	config LockoutConfig
	store  LockoutStore
	now    func() time.Time
}

// NewLockoutManager creates a manager over store.
func NewLockoutManager(store LockoutStore, config LockoutConfig) *LockoutManager {
	return &LockoutManager{config: config, store: store, now: time.Now}
}

// CheckRequest reports whether a login for subject from ip must be refused,
// and for how long.
func (m *LockoutManager) CheckRequest(ctx context.Context, subject, ip string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}
	for _, s := range m.subjects(subject, ip) {
		entry, err := m.store.Get(ctx, s)
		if errors.Is(err, ErrLockoutNotFound) {
			continue
		}
		if err != nil {
			return false, 0, fmt.Errorf("check lockout: %w", err)
		}
		if now := m.now(); entry.lockedAt(now) {
			return true, entry.LockedUntil.Sub(now), nil
		}
	}
	return false, 0, nil
}

// RecordFailedAttempt counts a failed login and reports whether it locked
// the email or the address.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, subject, ip string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}
	for _, s := range m.subjects(subject, ip) {
		locked, remaining, err := m.fail(ctx, s)
		if err != nil || locked {
			return locked, remaining, err
		}
	}
	return false, 0, nil
}

func (m *LockoutManager) subjects(subject, ip string) []string {
	if m.config.TrackByIP && ip != "" {
		return []string{subject, "ip:" + ip}
	}
	return []string{subject}
}

func (m *LockoutManager) fail(ctx context.Context, subject string) (bool, time.Duration, error) {
	entry, err := m.store.Get(ctx, subject)
	switch {
	case errors.Is(err, ErrLockoutNotFound):
		entry = &LockoutEntry{Subject: subject}
	case err != nil:
		return false, 0, fmt.Errorf("get lockout: %w", err)
	}

	now := m.now()
	if entry.lockedAt(now) {
		return true, entry.LockedUntil.Sub(now), nil
	}

	entry.FailedAttempts++
	entry.LastAttempt = now

	var period time.Duration
	if entry.FailedAttempts >= m.config.MaxAttempts {
		period = m.config.period(entry.LockoutCount)
		entry.LockedUntil = now.Add(period)
		entry.LockoutCount++
		entry.FailedAttempts = 0
	}
	if err := m.store.Put(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("save lockout: %w", err)
	}
	if period == 0 {
		return false, 0, nil
	}

	metrics.AccountLockouts.Inc()
	logging.Warn().
		Str("subject", subject).
		Dur("duration", period).
		Int("lockout_count", entry.LockoutCount).
		Msg("Account locked")
	return true, period, nil
}

// RecordSuccessfulLogin forgets the failures of subject. The address entry
// is left alone.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, subject string) error {
	if !m.config.Enabled {
		return nil
	}
	if err := m.store.Delete(ctx, subject); err != nil && !errors.Is(err, ErrLockoutNotFound) {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}

// Cleanup purges expired entries. The supervisor runs it periodically.
func (m *LockoutManager) Cleanup(ctx context.Context) (int, error) {
	count, err := m.store.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("lockout cleanup: %w", err)
	}
	if count > 0 {
		metrics.LockoutEntriesPurged.Add(float64(count))
		logging.Info().Int("count", count).Msg("Cleaned up expired lockout entries")
	}
	return count, nil
}

// MemoryLockoutStore keeps lockout entries in process memory. Entries are
// copied in and out.
type MemoryLockoutStore struct {
	mu      sync.Mutex
	entries map[string]LockoutEntry
}

// NewMemoryLockoutStore creates an empty store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]LockoutEntry)}
}

func (s *MemoryLockoutStore) Get(_ context.Context, subject string) (*LockoutEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	return &entry, nil
}

func (s *MemoryLockoutStore) Put(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Subject] = *entry
	return nil
}

func (s *MemoryLockoutStore) Delete(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[subject]; !ok {
		return ErrLockoutNotFound
	}
	delete(s.entries, subject)
	return nil
}

func (s *MemoryLockoutStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for subject, entry := range s.entries {
		if entry.expiredAt(now) {
			delete(s.entries, subject)
			count++
		}
	}
	return count, nil
}
