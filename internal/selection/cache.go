// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"math/rand"
	"time"
)

// weightTable is one refresh epoch of precomputed weight rows. A table is
// built off the engine's lock and swapped in atomically, so readers never
// observe a half-replaced epoch. Mutation of serve counters happens under
// the engine's lock.
type weightTable struct {
	rows    []WeightRow
	index   map[int64]int
	albums  map[int64]AlbumSnapshot
	total   float64
	builtAt time.Time
}

// newWeightTable builds a table from computed rows and their album snapshots.
func newWeightTable(rows []WeightRow, albums map[int64]AlbumSnapshot) *weightTable {
	t := &weightTable{
		rows:    rows,
		index:   make(map[int64]int, len(rows)),
		albums:  albums,
		builtAt: time.Now(),
	}
	for i := range rows {
		t.index[rows[i].AlbumID] = i
		t.total += rows[i].Factors.Final
	}
	return t
}

// draw picks a row with probability proportional to its final weight,
// skipping albums in the excluded set. Returns nil when no eligible row
// exists. Weights are not decremented after a draw; only the exclusion
// window prevents immediate repeats.
func (t *weightTable) draw(rng *rand.Rand, excluded map[int64]struct{}) *WeightRow {
	if t == nil || len(t.rows) == 0 {
		return nil
	}

	eligible := t.total
	if len(excluded) > 0 {
		eligible = 0
		for i := range t.rows {
			if _, skip := excluded[t.rows[i].AlbumID]; !skip {
				eligible += t.rows[i].Factors.Final
			}
		}
	}
	if eligible <= 0 {
		return nil
	}

	target := rng.Float64() * eligible
	for i := range t.rows {
		if _, skip := excluded[t.rows[i].AlbumID]; skip {
			continue
		}
		target -= t.rows[i].Factors.Final
		if target < 0 {
			return &t.rows[i]
		}
	}

	// Floating point residue: fall back to the last eligible row.
	for i := len(t.rows) - 1; i >= 0; i-- {
		if _, skip := excluded[t.rows[i].AlbumID]; !skip {
			return &t.rows[i]
		}
	}
	return nil
}

// markServed updates serve bookkeeping for a drawn row.
func (t *weightTable) markServed(albumID int64, at time.Time) {
	if i, ok := t.index[albumID]; ok {
		t.rows[i].TimesServed++
		t.rows[i].LastServed = at
	}
}

// album returns the snapshot backing a row.
func (t *weightTable) album(albumID int64) (AlbumSnapshot, bool) {
	a, ok := t.albums[albumID]
	return a, ok
}

// distribution reports count, average, max and min of the epoch's final
// weights for the statistics blob.
func (t *weightTable) distribution() (count int, avg, maxW, minW float64) {
	if t == nil || len(t.rows) == 0 {
		return 0, 0, 0, 0
	}
	minW = t.rows[0].Factors.Final
	for i := range t.rows {
		w := t.rows[i].Factors.Final
		if w > maxW {
			maxW = w
		}
		if w < minW {
			minW = w
		}
	}
	return len(t.rows), t.total / float64(len(t.rows)), maxW, minW
}
