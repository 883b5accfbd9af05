// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vinylvault/internal/selection"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, zerolog.Nop())
}

func testAlbum(id int64, artist string) *selection.AlbumSnapshot {
	return &selection.AlbumSnapshot{
		ID:        id,
		Title:     artist + " LP",
		Artist:    artist,
		Genres:    []string{"Jazz"},
		Rating:    4,
		DateAdded: time.Now().AddDate(0, -1, 0),
	}
}

func TestAlbumCRUD(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		if err := store.PutAlbum(ctx, testAlbum(1, "Alice")); err != nil {
			t.Fatalf("PutAlbum: %v", err)
		}
		got, err := store.GetAlbum(ctx, 1)
		if err != nil {
			t.Fatalf("GetAlbum: %v", err)
		}
		if got.Artist != "Alice" || got.Rating != 4 {
			t.Errorf("GetAlbum returned %+v", got)
		}
	})

	t.Run("invalid id rejected", func(t *testing.T) {
		if err := store.PutAlbum(ctx, testAlbum(0, "Nobody")); err == nil {
			t.Error("expected error for zero album ID")
		}
	})

	t.Run("missing album", func(t *testing.T) {
		if _, err := store.GetAlbum(ctx, 99); !errors.Is(err, ErrAlbumNotFound) {
			t.Errorf("GetAlbum(99) = %v, want ErrAlbumNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteAlbum(ctx, 1); err != nil {
			t.Fatalf("DeleteAlbum: %v", err)
		}
		if _, err := store.GetAlbum(ctx, 1); !errors.Is(err, ErrAlbumNotFound) {
			t.Errorf("GetAlbum after delete = %v, want ErrAlbumNotFound", err)
		}
	})
}

func TestListAlbums(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := store.PutAlbum(ctx, testAlbum(i, "Artist")); err != nil {
			t.Fatalf("PutAlbum(%d): %v", i, err)
		}
	}

	albums, err := store.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}
	if len(albums) != 3 {
		t.Errorf("ListAlbums returned %d, want 3", len(albums))
	}
}

func TestRecordPlay(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.PutAlbum(ctx, testAlbum(1, "Alice")); err != nil {
		t.Fatalf("PutAlbum: %v", err)
	}

	before := time.Now()
	if err := store.RecordPlay(ctx, 1); err != nil {
		t.Fatalf("RecordPlay: %v", err)
	}

	got, err := store.GetAlbum(ctx, 1)
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}
	if got.PlayCount != 1 {
		t.Errorf("PlayCount = %d, want 1", got.PlayCount)
	}
	if got.LastPlayed == nil || got.LastPlayed.Before(before) {
		t.Errorf("LastPlayed = %v, want at or after %v", got.LastPlayed, before)
	}

	if err := store.RecordPlay(ctx, 42); !errors.Is(err, ErrAlbumNotFound) {
		t.Errorf("RecordPlay(42) = %v, want ErrAlbumNotFound", err)
	}
}

func TestSelectionLog(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 5; i++ {
		entry := selection.HistoryEntry{
			AlbumID:   int64(i + 1),
			Timestamp: now.Add(time.Duration(i-5) * time.Hour),
			Artist:    "Artist",
			SessionID: "s1",
		}
		if err := store.AppendSelection(ctx, entry); err != nil {
			t.Fatalf("AppendSelection: %v", err)
		}
	}

	t.Run("newest first with window", func(t *testing.T) {
		entries, err := store.RecentSelections(ctx, now.Add(-3*time.Hour-time.Minute), 0)
		if err != nil {
			t.Fatalf("RecentSelections: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("RecentSelections returned %d entries, want 3", len(entries))
		}
		if entries[0].AlbumID != 5 {
			t.Errorf("newest entry album = %d, want 5", entries[0].AlbumID)
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].Timestamp.After(entries[i-1].Timestamp) {
				t.Error("entries not ordered newest first")
			}
		}
	})

	t.Run("limit caps results", func(t *testing.T) {
		entries, err := store.RecentSelections(ctx, now.Add(-24*time.Hour), 2)
		if err != nil {
			t.Fatalf("RecentSelections: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("RecentSelections with limit 2 returned %d", len(entries))
		}
	})

	t.Run("zero timestamp defaults to now", func(t *testing.T) {
		if err := store.AppendSelection(ctx, selection.HistoryEntry{AlbumID: 9, SessionID: "s2"}); err != nil {
			t.Fatalf("AppendSelection: %v", err)
		}
		entries, err := store.RecentSelections(ctx, now.Add(-time.Minute), 1)
		if err != nil {
			t.Fatalf("RecentSelections: %v", err)
		}
		if len(entries) != 1 || entries[0].AlbumID != 9 {
			t.Errorf("RecentSelections = %+v, want the zero-timestamp entry newest", entries)
		}
	})
}

func TestAttachFeedback(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	logSel := func(albumID int64, session string, at time.Time) {
		t.Helper()
		err := store.AppendSelection(ctx, selection.HistoryEntry{
			AlbumID:   albumID,
			Timestamp: at,
			SessionID: session,
		})
		if err != nil {
			t.Fatalf("AppendSelection: %v", err)
		}
	}

	logSel(1, "s1", now.Add(-2*time.Hour))
	logSel(1, "s1", now.Add(-1*time.Hour))
	logSel(2, "s1", now.Add(-30*time.Minute))

	t.Run("lands on newest matching entry", func(t *testing.T) {
		if err := store.AttachFeedback(ctx, 1, "s1", selection.FeedbackLike); err != nil {
			t.Fatalf("AttachFeedback: %v", err)
		}
		entries, err := store.RecentSelections(ctx, now.Add(-24*time.Hour), 0)
		if err != nil {
			t.Fatalf("RecentSelections: %v", err)
		}
		// entries newest first: [album2, album1@-1h, album1@-2h]
		if fb := entries[1].Feedback; fb == nil || *fb != selection.FeedbackLike {
			t.Errorf("newest album-1 entry feedback = %v, want like", fb)
		}
		if entries[2].Feedback != nil {
			t.Error("older album-1 entry got feedback")
		}
	})

	t.Run("second feedback falls through to older entry", func(t *testing.T) {
		if err := store.AttachFeedback(ctx, 1, "s1", selection.FeedbackDislike); err != nil {
			t.Fatalf("AttachFeedback: %v", err)
		}
		entries, err := store.RecentSelections(ctx, now.Add(-24*time.Hour), 0)
		if err != nil {
			t.Fatalf("RecentSelections: %v", err)
		}
		if fb := entries[2].Feedback; fb == nil || *fb != selection.FeedbackDislike {
			t.Errorf("older album-1 entry feedback = %v, want dislike", fb)
		}
	})

	t.Run("no matching entry errors", func(t *testing.T) {
		if err := store.AttachFeedback(ctx, 42, "s1", selection.FeedbackLike); err == nil {
			t.Error("expected error for unknown album")
		}
	})
}

func TestFeedbackSince(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := store.AppendSelection(ctx, selection.HistoryEntry{AlbumID: 1, Timestamp: now.Add(-2 * time.Hour), SessionID: "s1"}); err != nil {
		t.Fatalf("AppendSelection: %v", err)
	}
	if err := store.AppendSelection(ctx, selection.HistoryEntry{AlbumID: 2, Timestamp: now.Add(-1 * time.Hour), SessionID: "s1"}); err != nil {
		t.Fatalf("AppendSelection: %v", err)
	}
	if err := store.AttachFeedback(ctx, 1, "s1", selection.FeedbackLike); err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}

	entries, err := store.FeedbackSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("FeedbackSince: %v", err)
	}
	if len(entries) != 1 || entries[0].AlbumID != 1 {
		t.Errorf("FeedbackSince = %+v, want only the album-1 entry", entries)
	}
}
