// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLRUAddWithinBudget(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	evicted, err := c.add("a", 400, now)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(evicted) != 0 {
		t.Errorf("evicted %v, want none", evicted)
	}
	if c.totalBytes() != 400 {
		t.Errorf("totalBytes = %d, want 400", c.totalBytes())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	for i, key := range []string{"a", "b", "c"} {
		if _, err := c.add(key, 400, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
	}

	// a and b total 800; adding c (400) must evict a, the oldest.
	if c.touch("a", now) {
		t.Error("a still cached, want evicted")
	}
	if !c.touch("b", now) {
		t.Error("b evicted, want cached")
	}
	if !c.touch("c", now) {
		t.Error("c evicted, want cached")
	}
	if c.totalBytes() != 800 {
		t.Errorf("totalBytes = %d, want 800", c.totalBytes())
	}
}

func TestLRUTouchProtectsFromEviction(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	mustAdd := func(key string, size int64, at time.Time) {
		t.Helper()
		if _, err := c.add(key, size, at); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
	}

	mustAdd("a", 400, now)
	mustAdd("b", 400, now.Add(time.Second))

	// Touching a makes b the LRU candidate.
	if !c.touch("a", now.Add(2*time.Second)) {
		t.Fatal("touch(a) missed")
	}
	mustAdd("c", 400, now.Add(3*time.Second))

	if !c.touch("a", now) {
		t.Error("a evicted despite recent access")
	}
	if c.touch("b", now) {
		t.Error("b survived, want evicted as least recently used")
	}
}

func TestLRUOversizedEntryRejectedWithoutEviction(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	if _, err := c.add("a", 400, now); err != nil {
		t.Fatalf("add: %v", err)
	}

	evicted, err := c.add("huge", 2000, now)
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Fatalf("add oversized = %v, want ErrEntryTooLarge", err)
	}
	if len(evicted) != 0 {
		t.Errorf("oversized add evicted %v, want nothing", evicted)
	}
	// The existing entry must be untouched.
	if !c.touch("a", now) {
		t.Error("existing entry lost on rejected add")
	}
	if c.totalBytes() != 400 {
		t.Errorf("totalBytes = %d, want 400", c.totalBytes())
	}
}

func TestLRUUpdateExistingKey(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	if _, err := c.add("a", 400, now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.add("a", 600, now.Add(time.Second)); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	if c.len() != 1 {
		t.Errorf("len = %d, want 1", c.len())
	}
	if c.totalBytes() != 600 {
		t.Errorf("totalBytes = %d, want 600", c.totalBytes())
	}
}

func TestLRUSequentialFill(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	// Ten 300-byte entries through a 1000-byte budget: at most three fit.
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("k%d", i)
		if _, err := c.add(key, 300, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("add %s: %v", key, err)
		}
		if c.totalBytes() > 1000 {
			t.Fatalf("budget exceeded after %s: %d bytes", key, c.totalBytes())
		}
	}

	if c.len() != 3 {
		t.Errorf("len = %d, want 3", c.len())
	}
	_, _, evictions, _, _ := c.stats()
	if evictions != 7 {
		t.Errorf("evictions = %d, want 7", evictions)
	}
}

func TestLRURemoveAndClear(t *testing.T) {
	c := newLRU(1000)
	now := time.Now()

	if _, err := c.add("a", 400, now); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.add("b", 300, now); err != nil {
		t.Fatalf("add: %v", err)
	}

	size, ok := c.remove("a")
	if !ok || size != 400 {
		t.Errorf("remove(a) = (%d, %v), want (400, true)", size, ok)
	}
	if _, ok := c.remove("missing"); ok {
		t.Error("remove(missing) reported success")
	}

	// Accumulate some counter state: one hit, one miss, one eviction.
	c.touch("b", now)
	c.touch("gone", now)
	if _, err := c.add("big", 900, now); err != nil {
		t.Fatalf("add: %v", err)
	}

	keys := c.clear()
	if len(keys) != 1 || keys[0] != "big" {
		t.Errorf("clear returned %v, want [big]", keys)
	}
	if c.totalBytes() != 0 || c.len() != 0 {
		t.Errorf("cache not empty after clear: %d entries, %d bytes", c.len(), c.totalBytes())
	}
	hits, misses, evictions, entries, bytes := c.stats()
	if hits != 0 || misses != 0 || evictions != 0 || entries != 0 || bytes != 0 {
		t.Errorf("stats after clear = (%d, %d, %d, %d, %d), want all zero",
			hits, misses, evictions, entries, bytes)
	}
}

func TestLRUSeedPreservesAccessOrder(t *testing.T) {
	c := newLRU(1000)
	base := time.Now().Add(-time.Hour)

	// Seeded ascending by last access: a is oldest.
	c.seed("a", 300, base)
	c.seed("b", 300, base.Add(time.Minute))
	c.seed("c", 300, base.Add(2*time.Minute))

	if _, err := c.add("d", 300, time.Now()); err != nil {
		t.Fatalf("add: %v", err)
	}

	if c.touch("a", time.Now()) {
		t.Error("oldest seeded entry survived, want evicted first")
	}
	if !c.touch("b", time.Now()) {
		t.Error("b evicted, want cached")
	}
}
