// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Package selection implements the weighted random album selection engine.
//
// The engine pre-computes a weight for every album in the collection from
// five multiplicative factors (rating, play-count balance, recency with
// starvation recovery, genre diversity and artist diversity), plus seasonal
// and time-of-day genre boosts. Weights live in an in-memory cache epoch
// that is rebuilt periodically off-lock and swapped in atomically, so a
// selection always reads one consistent epoch.
//
// Selection draws an album with probability proportional to its weight,
// skipping anything served inside the exclusion window. When no weighted
// row is eligible the engine falls back to a uniform draw over the full
// collection, so selection only fails on an empty collection.
//
// Feedback (like, dislike, neutral) is attached to the durable selection
// log and folded into a satisfaction EMA; it never retroactively changes
// weights. The optional optimizer turns accumulated feedback into advisory
// configuration suggestions and nothing more.
package selection
