// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// SizeClass selects the render size a cached cover is processed to.
type SizeClass string

const (
	// SizeThumbnail is the grid view size.
	SizeThumbnail SizeClass = "thumbnail"

	// SizeDetail is the album detail view size.
	SizeDetail SizeClass = "detail"
)

// Valid reports whether the size class is one of the known values.
func (s SizeClass) Valid() bool {
	return s == SizeThumbnail || s == SizeDetail
}

// ErrFetchFailed wraps any download failure: network errors, non-200
// statuses, non-image content types, oversized bodies and open circuit
// breakers all surface as this sentinel.
var ErrFetchFailed = errors.New("imagecache: image fetch failed")

// ErrInvalidSizeClass is returned for an unknown size class.
var ErrInvalidSizeClass = errors.New("imagecache: invalid size class")

// cacheKey derives the stable content address for a source URL at a size
// class. Same URL, different class, different key.
func cacheKey(url string, class SizeClass) string {
	sum := sha256.Sum256([]byte(url + ":" + string(class)))
	return hex.EncodeToString(sum[:])
}

// Entry is the durable metadata row for one cached image file.
type Entry struct {
	// Key is the content address, also the file basename.
	Key string `json:"key"`

	// URL is the source the image was fetched from.
	URL string `json:"url"`

	// SizeClass the image was processed to.
	SizeClass SizeClass `json:"size_class"`

	// Size is the stored file size in bytes.
	Size int64 `json:"size"`

	CreatedAt  time.Time `json:"created_at"`
	LastAccess time.Time `json:"last_access"`
}

// Stats is the cache's observability blob.
type Stats struct {
	Entries    int     `json:"entries"`
	TotalBytes int64   `json:"total_bytes"`
	MaxBytes   int64   `json:"max_bytes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`

	// HitRate is the hit percentage in [0, 100].
	HitRate float64 `json:"hit_rate"`
}

// String renders the stats for log lines.
func (s Stats) String() string {
	return fmt.Sprintf("entries=%d bytes=%d/%d hits=%d misses=%d evictions=%d",
		s.Entries, s.TotalBytes, s.MaxBytes, s.Hits, s.Misses, s.Evictions)
}
