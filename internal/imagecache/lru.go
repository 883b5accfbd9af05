// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"errors"
	"sync"
	"time"
)

// ErrEntryTooLarge is returned when a single entry exceeds the whole byte
// budget. The cache is left untouched: nothing is evicted for an entry that
// could never fit.
var ErrEntryTooLarge = errors.New("imagecache: entry exceeds cache capacity")

// lruEntry is a node in the access-ordered doubly-linked list.
type lruEntry struct {
	key        string
	size       int64
	lastAccess time.Time
	prev       *lruEntry
	next       *lruEntry
}

// lru tracks cached image files by total byte size with least-recently-used
// eviction. It holds no file contents, only keys and sizes; the caller owns
// the files and the metadata rows for evicted keys.
//
// A doubly-linked list with sentinel head/tail keeps access order, a map
// gives O(1) lookup. head.next is most recently used, tail.prev is the
// eviction candidate.
type lru struct {
	mu sync.Mutex

	maxBytes int64
	bytes    int64

	items map[string]*lruEntry
	head  *lruEntry
	tail  *lruEntry

	hits      int64
	misses    int64
	evictions int64
}

func newLRU(maxBytes int64) *lru {
	c := &lru{
		maxBytes: maxBytes,
		items:    make(map[string]*lruEntry),
		head:     &lruEntry{},
		tail:     &lruEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// touch marks a key as used and reports whether it is cached. A hit moves
// the entry to the front of the access order.
func (c *lru) touch(key string, at time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return false
	}
	entry.lastAccess = at
	c.moveToFront(entry)
	c.hits++
	return true
}

// contains reports whether a key is cached without recording a hit or a
// miss and without touching the access order. For re-checks after a lookup
// already counted.
func (c *lru) contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// add inserts a key, evicting least-recently-used entries until the new
// total fits the budget. The evicted keys are returned so the caller can
// delete their files and metadata. An entry larger than the whole budget is
// rejected before anything is evicted.
func (c *lru) add(key string, size int64, at time.Time) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.maxBytes {
		return nil, ErrEntryTooLarge
	}

	if entry, ok := c.items[key]; ok {
		c.bytes += size - entry.size
		entry.size = size
		entry.lastAccess = at
		c.moveToFront(entry)
		return c.evictUntilFit(), nil
	}

	entry := &lruEntry{key: key, size: size, lastAccess: at}
	c.addToFront(entry)
	c.items[key] = entry
	c.bytes += size

	return c.evictUntilFit(), nil
}

// seed inserts a key without eviction, for startup reconciliation. Callers
// insert in ascending last-access order so the list ends up correctly
// ordered.
func (c *lru) seed(key string, size int64, lastAccess time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		return
	}
	entry := &lruEntry{key: key, size: size, lastAccess: lastAccess}
	c.addToFront(entry)
	c.items[key] = entry
	c.bytes += size
}

// remove drops a key, returning its size and whether it was present.
func (c *lru) remove(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return 0, false
	}
	c.removeEntry(entry)
	return entry.size, true
}

// clear drops everything, resets the counters and returns the removed keys.
func (c *lru) clear() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.items = make(map[string]*lruEntry)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.bytes = 0
	c.hits = 0
	c.misses = 0
	c.evictions = 0
	return keys
}

// totalBytes returns the current cached byte total.
func (c *lru) totalBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// len returns the number of cached entries.
func (c *lru) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// stats returns hit/miss/eviction counters and current totals.
func (c *lru) stats() (hits, misses, evictions int64, entries int, bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.evictions, len(c.items), c.bytes
}

// Internal methods, lock held.

func (c *lru) evictUntilFit() []string {
	var evicted []string
	for c.bytes > c.maxBytes {
		oldest := c.tail.prev
		if oldest == c.head {
			break
		}
		c.removeEntry(oldest)
		c.evictions++
		evicted = append(evicted, oldest.key)
	}
	return evicted
}

func (c *lru) addToFront(entry *lruEntry) {
	entry.prev = c.head
	entry.next = c.head.next
	c.head.next.prev = entry
	c.head.next = entry
}

func (c *lru) moveToFront(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	c.addToFront(entry)
}

func (c *lru) removeEntry(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	delete(c.items, entry.key)
	c.bytes -= entry.size
}
