// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Package imagecache implements the bounded cover art cache.
//
// Images are addressed by SHA-256 of source URL plus size class, processed
// to class dimensions (thumbnail or detail) and stored as JPEG files on
// disk with metadata rows in BadgerDB. An in-memory LRU index enforces a
// total byte budget; evicted keys lose both file and row. Startup
// reconciliation rebuilds the index from metadata and drops rows whose
// files disappeared.
//
// Downloads run behind a token bucket rate limiter and a circuit breaker,
// with a hard body size cap and content-type check. All fetch failures
// surface as ErrFetchFailed; callers fall back to the generated vinyl
// record placeholder.
package imagecache
