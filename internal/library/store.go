// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vinylvault/internal/selection"
)

// Key prefixes inside the shared BadgerDB.
const (
	albumKeyPrefix     = "album:"
	selectionKeyPrefix = "sel:"
)

// ErrAlbumNotFound is returned when no album record exists for an ID.
var ErrAlbumNotFound = errors.New("library: album not found")

// Store is the BadgerDB-backed collection store: album records plus the
// append-only selection log. It implements selection.Library.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	now func() time.Time
}

// compile-time interface check
var _ selection.Library = (*Store)(nil)

// NewStore creates a library store on an already-open BadgerDB.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "library").Logger(),
		now:    time.Now,
	}
}

func albumKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", albumKeyPrefix, id))
}

// selectionKey orders log entries by timestamp; the album ID suffix keeps
// same-nanosecond entries distinct.
func selectionKey(ts time.Time, albumID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%d", selectionKeyPrefix, ts.UnixNano(), albumID))
}

// PutAlbum writes or replaces an album record.
func (s *Store) PutAlbum(ctx context.Context, album *selection.AlbumSnapshot) error {
	if album.ID <= 0 {
		return fmt.Errorf("album id must be positive, got %d", album.ID)
	}
	data, err := json.Marshal(album)
	if err != nil {
		return fmt.Errorf("marshal album: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(albumKey(album.ID), data)
	})
}

// GetAlbum retrieves one album record.
func (s *Store) GetAlbum(ctx context.Context, id int64) (*selection.AlbumSnapshot, error) {
	var album selection.AlbumSnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(albumKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAlbumNotFound
		}
		if err != nil {
			return fmt.Errorf("get album: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &album)
		})
	})
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// DeleteAlbum removes an album record. The selection log keeps its history.
func (s *Store) DeleteAlbum(ctx context.Context, id int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(albumKey(id))
	})
}

// ListAlbums returns a snapshot of the full collection.
func (s *Store) ListAlbums(ctx context.Context) ([]selection.AlbumSnapshot, error) {
	var albums []selection.AlbumSnapshot

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(albumKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var album selection.AlbumSnapshot
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &album)
			})
			if err != nil {
				return fmt.Errorf("unmarshal album: %w", err)
			}
			albums = append(albums, album)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return albums, nil
}

// RecordPlay increments an album's play count and stamps last-played.
func (s *Store) RecordPlay(ctx context.Context, albumID int64) error {
	album, err := s.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}

	now := s.now()
	album.PlayCount++
	album.LastPlayed = &now

	if err := s.PutAlbum(ctx, album); err != nil {
		return err
	}
	s.logger.Debug().
		Int64("album_id", albumID).
		Int("play_count", album.PlayCount).
		Msg("play recorded")
	return nil
}

// AppendSelection appends one entry to the selection log.
func (s *Store) AppendSelection(ctx context.Context, entry selection.HistoryEntry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = s.now()
		entry.Timestamp = ts
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal selection entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(selectionKey(ts, entry.AlbumID), data)
	})
}

// AttachFeedback sets feedback on the newest log entry for the album and
// session that has none yet.
func (s *Store) AttachFeedback(ctx context.Context, albumID int64, sessionID string, fb selection.Feedback) error {
	var (
		foundKey []byte
		entry    selection.HistoryEntry
	)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(selectionKeyPrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the prefix range.
		for it.Seek(append([]byte(selectionKeyPrefix), 0xff)); it.Valid(); it.Next() {
			var candidate selection.HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &candidate)
			})
			if err != nil {
				return fmt.Errorf("unmarshal selection entry: %w", err)
			}
			if candidate.AlbumID == albumID && candidate.SessionID == sessionID && candidate.Feedback == nil {
				foundKey = it.Item().KeyCopy(nil)
				entry = candidate
				return nil
			}
		}
		return fmt.Errorf("no selection without feedback for album %d session %s", albumID, sessionID)
	})
	if err != nil {
		return err
	}

	entry.Feedback = &fb
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal selection entry: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(foundKey, data)
	})
}

// RecentSelections returns log entries newer than since, newest first. A
// limit of zero or less means no cap.
func (s *Store) RecentSelections(ctx context.Context, since time.Time, limit int) ([]selection.HistoryEntry, error) {
	var entries []selection.HistoryEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(selectionKeyPrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(selectionKeyPrefix), 0xff)); it.Valid(); it.Next() {
			var entry selection.HistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("unmarshal selection entry: %w", err)
			}
			if !entry.Timestamp.After(since) {
				// Keys are time-ordered; everything further back is older.
				return nil
			}
			entries = append(entries, entry)
			if limit > 0 && len(entries) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FeedbackSince returns feedback-bearing entries newer than since, newest
// first.
func (s *Store) FeedbackSince(ctx context.Context, since time.Time) ([]selection.HistoryEntry, error) {
	all, err := s.RecentSelections(ctx, since, 0)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for i := range all {
		if all[i].Feedback != nil {
			out = append(out, all[i])
		}
	}
	return out, nil
}
