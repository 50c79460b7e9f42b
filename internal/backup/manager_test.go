// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/database"
)

// fakeExporter writes a fixed set of files instead of running DuckDB.
type fakeExporter struct {
	mu        sync.Mutex
	exportErr error
	exports   int
}

func (f *fakeExporter) ExportTo(_ context.Context, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exportErr != nil {
		return f.exportErr
	}
	f.exports++
	for name, body := range map[string]string{
		"schema.sql": "CREATE TABLE users (id BIGINT);\n",
		"load.sql":   "COPY users FROM 'users.csv';\n",
		"users.csv":  "id\n1\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeExporter) TableCounts(context.Context) (map[string]int64, error) {
	return map[string]int64{"users": 1}, nil
}

func (f *fakeExporter) GetCurrentSchemaVersion(context.Context) (int, error) {
	return 3, nil
}

func newTestManager(t *testing.T, cfg Config, db Exporter) *Manager {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	m, err := NewManager(cfg, db, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

// archiveEntries lists the file names inside a .tar.gz.
func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("archive is not gzip: %v", err)
	}
	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return names
		}
		if err != nil {
			t.Fatalf("archive is not a tar: %v", err)
		}
		names = append(names, hdr.Name)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestManager_Create(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir, AppVersion: "1.2.3"}, &fakeExporter{})
	admin := int64(1)

	b, err := m.Create(context.Background(), TriggerManual, &admin)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Trigger != TriggerManual || b.AppVersion != "1.2.3" || b.SchemaVersion != 3 {
		t.Errorf("backup = %+v", b)
	}
	if b.CreatedBy == nil || *b.CreatedBy != 1 || b.RowCounts["users"] != 1 {
		t.Errorf("backup = %+v", b)
	}
	if b.Size <= 0 || len(b.Checksum) != 64 {
		t.Errorf("size = %d, checksum = %q", b.Size, b.Checksum)
	}

	entries := archiveEntries(t, filepath.Join(dir, b.FileName))
	for _, want := range []string{"manifest.json", "database/schema.sql", "database/load.sql", "database/users.csv"} {
		if !contains(entries, want) {
			t.Errorf("archive entries %v missing %s", entries, want)
		}
	}

	if err := m.Verify(b.ID); err != nil {
		t.Errorf("Verify() error = %v", err)
	}

	files, _ := os.ReadDir(dir)
	for _, f := range files {
		if strings.HasPrefix(f.Name(), ".export-") {
			t.Errorf("staging directory %s was left behind", f.Name())
		}
	}
}

func TestManager_IndexSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir}, &fakeExporter{})
	b, err := m.Create(context.Background(), TriggerScheduled, nil)
	if err != nil {
		t.Fatal(err)
	}

	reopened := newTestManager(t, Config{Dir: dir}, &fakeExporter{})
	got, err := reopened.Get(b.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Checksum != b.Checksum {
		t.Errorf("checksum = %s, want %s", got.Checksum, b.Checksum)
	}
}

func TestManager_CorruptIndexStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, Config{Dir: dir}, &fakeExporter{})
	if n := len(m.List()); n != 0 {
		t.Errorf("List() has %d entries, want 0", n)
	}
}

func TestManager_Verify(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir}, &fakeExporter{})
	b, err := m.Create(context.Background(), TriggerManual, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Verify("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Verify(missing) = %v, want ErrNotFound", err)
	}

	path, err := m.Path(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := m.Verify(b.ID); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Verify(tampered) = %v, want ErrChecksumMismatch", err)
	}
}

func TestManager_Prune(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir, Retain: 2}, &fakeExporter{})
	clock := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	var ids []string
	for i := 0; i < 4; i++ {
		b, err := m.Create(context.Background(), TriggerScheduled, nil)
		if err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
		ids = append(ids, b.ID)
		clock = clock.Add(time.Hour)
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List() has %d entries, want 2", len(list))
	}
	if list[0].ID != ids[3] || list[1].ID != ids[2] {
		t.Errorf("kept %s, %s; want newest two %s, %s", list[0].ID, list[1].ID, ids[3], ids[2])
	}

	archives, _ := filepath.Glob(filepath.Join(dir, "bookshelf-*.tar.gz"))
	if len(archives) != 2 {
		t.Errorf("%d archives on disk, want 2", len(archives))
	}
}

func TestManager_ExportFailure(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir}, &fakeExporter{exportErr: errors.New("disk full")})

	if _, err := m.Create(context.Background(), TriggerManual, nil); err == nil {
		t.Fatal("expected error")
	}
	if n := len(m.List()); n != 0 {
		t.Errorf("failed backup was indexed")
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 0 {
		t.Errorf("backup directory not empty after failure: %v", files)
	}
}

func TestManager_Busy(t *testing.T) {
	m := newTestManager(t, Config{}, &fakeExporter{})
	m.running.Lock()
	defer m.running.Unlock()

	if _, err := m.Create(context.Background(), TriggerManual, nil); !errors.Is(err, ErrBusy) {
		t.Errorf("Create() during a backup = %v, want ErrBusy", err)
	}
}

func TestNewManager_RequiresDir(t *testing.T) {
	if _, err := NewManager(Config{}, &fakeExporter{}, zerolog.Nop()); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestManager_Serve(t *testing.T) {
	exporter := &fakeExporter{}
	m := newTestManager(t, Config{Interval: 10 * time.Millisecond, Retain: 100}, exporter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(m.List()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no scheduled backup within 5s")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if got := m.List()[0].Trigger; got != TriggerScheduled {
		t.Errorf("trigger = %s, want scheduled", got)
	}
}

func TestManager_WithDuckDB(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	m := newTestManager(t, Config{Dir: dir}, db)
	b, err := m.Create(context.Background(), TriggerManual, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, ok := b.RowCounts["ratings"]; !ok {
		t.Errorf("row counts = %v, missing ratings", b.RowCounts)
	}
	entries := archiveEntries(t, filepath.Join(dir, b.FileName))
	if !contains(entries, "database/schema.sql") {
		t.Errorf("archive entries = %v", entries)
	}
}
