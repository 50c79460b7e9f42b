// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const lockoutKeyPrefix = "lockout:"

// BadgerLockoutStore persists lockout state in BadgerDB so that lockouts
// survive restarts.
type BadgerLockoutStore struct {
	db *badger.DB
}

// OpenBadgerLockoutStore opens a Badger database at path. An empty path
// opens an in-memory database.
func OpenBadgerLockoutStore(path string) (*BadgerLockoutStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open lockout store: %w", err)
	}
	return &BadgerLockoutStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerLockoutStore) Close() error {
	return s.db.Close()
}

func lockoutKey(subject string) []byte {
	return []byte(lockoutKeyPrefix + subject)
}

func (s *BadgerLockoutStore) Get(_ context.Context, subject string) (*LockoutEntry, error) {
	var entry LockoutEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lockoutKey(subject))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrLockoutNotFound
		}
		if err != nil {
			return fmt.Errorf("get lockout: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *BadgerLockoutStore) Put(_ context.Context, entry *LockoutEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal lockout: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lockoutKey(entry.Subject), data)
	})
}

func (s *BadgerLockoutStore) Delete(_ context.Context, subject string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := lockoutKey(subject)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrLockoutNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// DeleteExpired scans the lockout prefix and deletes expired entries in one
// transaction. Values that no longer decode are deleted too.
func (s *BadgerLockoutStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(lockoutKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry LockoutEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil || entry.expiredAt(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan lockouts: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired lockouts: %w", err)
	}
	return len(expired), nil
}
