// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package backup

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// countingWriter tracks the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeArchive packs every file under srcDir, plus manifest as
// manifest.json, into a gzipped tar at dst. It returns the archive size
// and its SHA-256.
//
//nolint:gosec // G304: dst is built from the configured backup directory
func writeArchive(srcDir, dst string, manifest *Backup) (size int64, checksum string, err error) {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close archive: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	hasher := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(out, hasher)}
	gz := gzip.NewWriter(counter)
	tw := tar.NewWriter(gz)

	if err := addManifest(tw, manifest); err != nil {
		return 0, "", err
	}
	if err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return addFile(tw, path, filepath.ToSlash(filepath.Join("database", rel)))
	}); err != nil {
		return 0, "", fmt.Errorf("failed to archive export: %w", err)
	}

	// Closing order matters: tar footer, then gzip trailer.
	if err := tw.Close(); err != nil {
		return 0, "", fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, "", fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return counter.n, hex.EncodeToString(hasher.Sum(nil)), nil
}

func addManifest(tw *tar.Writer, manifest *Backup) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    "manifest.json",
		Mode:    0o600,
		Size:    int64(len(data)),
		ModTime: manifest.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	_, err = tw.Write(data)
	return err
}

//nolint:gosec // G304: path comes from our own export directory
func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    name,
		Mode:    0o600,
		Size:    info.Size(),
		ModTime: info.ModTime().Truncate(time.Second),
	}); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to copy %s: %w", name, err)
	}
	return nil
}

// fileChecksum returns the hex SHA-256 of the file at path.
//
//nolint:gosec // G304: path is inside the backup directory
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // read-only

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
