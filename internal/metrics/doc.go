// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Package metrics exposes Prometheus collectors for the selection engine and
// the cover art cache. All collectors are registered with the default
// registry via promauto at package load; callers only touch the exported
// variables.
package metrics
