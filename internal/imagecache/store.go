// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// imageKeyPrefix namespaces image metadata inside the shared BadgerDB.
const imageKeyPrefix = "vvimg:"

// ErrEntryNotFound is returned when no metadata row exists for a key.
var ErrEntryNotFound = errors.New("imagecache: entry not found")

// Store persists image metadata rows in BadgerDB. File contents live on
// disk; the store only tracks what exists so restarts can rebuild the
// in-memory index.
type Store struct {
	db *badger.DB
}

// NewStore creates a metadata store on an already-open BadgerDB.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Put writes or replaces a metadata row.
func (s *Store) Put(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(imageKeyPrefix+entry.Key), data)
	})
}

// Get retrieves a metadata row by key.
func (s *Store) Get(key string) (*Entry, error) {
	var entry Entry

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(imageKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get entry: %w", err)
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

// Delete removes a metadata row. Deleting a missing row is not an error.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(imageKeyPrefix + key))
	})
}

// TouchAccess updates the last-access timestamp of a row.
func (s *Store) TouchAccess(key string, at time.Time) error {
	entry, err := s.Get(key)
	if err != nil {
		return err
	}
	entry.LastAccess = at
	return s.Put(entry)
}

// List returns all metadata rows.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(imageKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("unmarshal entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every metadata row.
func (s *Store) Clear() error {
	keys, err := s.listKeys()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) listKeys() ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(imageKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
