// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"sync"
	"time"
)

// Fixed capacities of the derived rolling views. Selections themselves use
// the configurable ring size; the genre and artist windows are intentionally
// short so diversity pressure reacts quickly.
const (
	genreWindowSize  = 10
	artistWindowSize = 5
)

// History is a bounded FIFO of recent selections with two derived rolling
// views (last-N primary genres, last-N artists). Insertion past capacity
// silently drops the oldest entry. Safe for concurrent use.
type History struct {
	mu sync.RWMutex

	capacity int
	entries  []HistoryEntry

	genres  []string
	artists []string
}

// NewHistory creates a History with the given selection capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 50
	}
	return &History{
		capacity: capacity,
		entries:  make([]HistoryEntry, 0, capacity),
		genres:   make([]string, 0, genreWindowSize),
		artists:  make([]string, 0, artistWindowSize),
	}
}

// Add appends a selection, evicting the oldest entry past capacity.
func (h *History) Add(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addLocked(entry)
}

// Seed replays durable log entries into the buffer, oldest first, so a
// restart does not reset diversity pressure to zero.
func (h *History) Seed(entries []HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range entries {
		h.addLocked(entries[i])
	}
}

func (h *History) addLocked(entry HistoryEntry) {
	if len(h.entries) >= h.capacity {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, entry)

	if g := entry.PrimaryGenre(); g != "" {
		if len(h.genres) >= genreWindowSize {
			h.genres = h.genres[1:]
		}
		h.genres = append(h.genres, g)
	}

	if len(h.artists) >= artistWindowSize {
		h.artists = h.artists[1:]
	}
	h.artists = append(h.artists, entry.Artist)
}

// RecentAlbums returns the IDs of albums selected within the given window,
// measured back from now.
func (h *History) RecentAlbums(window time.Duration) []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	ids := make([]int64, 0, len(h.entries))
	for i := range h.entries {
		if h.entries[i].Timestamp.After(cutoff) {
			ids = append(ids, h.entries[i].AlbumID)
		}
	}
	return ids
}

// RecentGenres returns the last n primary genres, oldest first.
func (h *History) RecentGenres(n int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return tailCopy(h.genres, n)
}

// RecentArtists returns the last n artists, oldest first.
func (h *History) RecentArtists(n int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return tailCopy(h.artists, n)
}

// Len returns the number of buffered selections.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear drops all buffered state.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
	h.genres = h.genres[:0]
	h.artists = h.artists[:0]
}

func tailCopy(s []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(s) {
		n = len(s)
	}
	out := make([]string, n)
	copy(out, s[len(s)-n:])
	return out
}
