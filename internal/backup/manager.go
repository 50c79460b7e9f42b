// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/metrics"
)

var (
	ErrNotFound         = errors.New("backup not found")
	ErrBusy             = errors.New("a backup is already running")
	ErrChecksumMismatch = errors.New("backup checksum mismatch")
)

const (
	metadataFile  = "metadata.json"
	defaultRetain = 7
)

// metadataStore is the on-disk index of archives, oldest first.
type metadataStore struct {
	Backups []Backup `json:"backups"`
}

// Manager creates, lists, verifies and prunes backups.
type Manager struct {
	cfg    Config
	db     Exporter
	logger zerolog.Logger
	now    func() time.Time

	// running is held for the whole of one Create.
	running sync.Mutex

	mu      sync.RWMutex
	backups []Backup
}

// NewManager creates the backup directory if needed and loads its index.
// A missing or unreadable index starts empty.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(cfg Config, db Exporter, logger zerolog.Logger) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if cfg.Retain <= 0 {
		cfg.Retain = defaultRetain
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", cfg.Dir, err)
	}

	m := &Manager{
		cfg:    cfg,
		db:     db,
		logger: logger.With().Str("component", "backup").Logger(),
		now:    time.Now,
	}
	if err := m.loadMetadata(); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn().Err(err).Msg("Backup index unreadable, starting empty")
	}
	return m, nil
}

// Create exports the database and writes a new archive. Only one backup
// runs at a time; a concurrent call returns ErrBusy.
func (m *Manager) Create(ctx context.Context, trigger Trigger, createdBy *int64) (b *Backup, err error) {
	if !m.running.TryLock() {
		return nil, ErrBusy
	}
	defer m.running.Unlock()

	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.BackupsTotal.WithLabelValues(string(trigger), outcome).Inc()
	}()

	start := m.now().UTC()
	id := start.Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
	b = &Backup{
		ID:         id,
		Trigger:    trigger,
		CreatedAt:  start,
		FileName:   "bookshelf-" + id + ".tar.gz",
		AppVersion: m.cfg.AppVersion,
		CreatedBy:  createdBy,
	}

	if b.SchemaVersion, err = m.db.GetCurrentSchemaVersion(ctx); err != nil {
		return nil, err
	}
	if b.RowCounts, err = m.db.TableCounts(ctx); err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(m.cfg.Dir, ".export-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			m.logger.Warn().Err(rmErr).Str("dir", staging).Msg("Failed to remove staging directory")
		}
	}()

	if err := m.db.ExportTo(ctx, staging); err != nil {
		return nil, err
	}
	b.Size, b.Checksum, err = writeArchive(staging, filepath.Join(m.cfg.Dir, b.FileName), b)
	if err != nil {
		return nil, err
	}
	b.DurationMS = time.Since(start).Milliseconds()

	m.mu.Lock()
	m.backups = append(m.backups, *b)
	err = m.saveMetadataLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	metrics.BackupLastSuccess.Set(float64(start.Unix()))
	m.logger.Info().
		Str("backup_id", b.ID).
		Str("trigger", string(trigger)).
		Int64("size", b.Size).
		Int64("duration_ms", b.DurationMS).
		Msg("Backup created")

	if removed, err := m.Prune(); err != nil {
		m.logger.Warn().Err(err).Msg("Backup pruning failed")
	} else if removed > 0 {
		m.logger.Info().Int("removed", removed).Msg("Old backups pruned")
	}
	return b, nil
}

// List returns all known backups, newest first.
func (m *Manager) List() []Backup {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Backup, len(m.backups))
	for i, b := range m.backups {
		out[len(out)-1-i] = b
	}
	return out
}

// Get returns one backup by id.
func (m *Manager) Get(id string) (*Backup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.backups {
		if m.backups[i].ID == id {
			b := m.backups[i]
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

// Path returns the archive file for id.
func (m *Manager) Path(id string) (string, error) {
	b, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.cfg.Dir, b.FileName), nil
}

// Verify recomputes the archive checksum and compares it with the index.
func (m *Manager) Verify(id string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}
	sum, err := fileChecksum(filepath.Join(m.cfg.Dir, b.FileName))
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", id, err)
	}
	if sum != b.Checksum {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, id)
	}
	return nil
}

// Prune deletes all but the newest Retain backups and returns how many it
// removed. Archives already missing from disk are dropped from the index.
func (m *Manager) Prune() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.backups, func(i, j int) bool {
		return m.backups[i].CreatedAt.Before(m.backups[j].CreatedAt)
	})
	excess := len(m.backups) - m.cfg.Retain
	if excess <= 0 {
		return 0, nil
	}

	var errs []error
	kept := make([]Backup, 0, m.cfg.Retain)
	removed := 0
	for i, b := range m.backups {
		if i >= excess {
			kept = append(kept, b)
			continue
		}
		err := os.Remove(filepath.Join(m.cfg.Dir, b.FileName))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			kept = append(kept, b)
			continue
		}
		removed++
	}
	m.backups = kept
	if err := m.saveMetadataLocked(); err != nil {
		errs = append(errs, err)
	}
	return removed, errors.Join(errs...)
}

//nolint:gosec // G304: path is inside the configured backup directory
func (m *Manager) loadMetadata() error {
	data, err := os.ReadFile(filepath.Join(m.cfg.Dir, metadataFile))
	if err != nil {
		return err
	}
	var store metadataStore
	if err := json.Unmarshal(data, &store); err != nil {
		return fmt.Errorf("failed to parse backup index: %w", err)
	}
	m.mu.Lock()
	m.backups = store.Backups
	m.mu.Unlock()
	return nil
}

// saveMetadataLocked writes the index through a temp file and rename.
func (m *Manager) saveMetadataLocked() error {
	data, err := json.MarshalIndent(metadataStore{Backups: m.backups}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup index: %w", err)
	}
	path := filepath.Join(m.cfg.Dir, metadataFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write backup index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace backup index: %w", err)
	}
	return nil
}
