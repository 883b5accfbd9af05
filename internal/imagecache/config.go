// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"fmt"
	"time"
)

// Config holds image cache settings.
type Config struct {
	// Dir is where processed image files live.
	Dir string `koanf:"dir" json:"dir"`

	// MaxBytes bounds the total size of cached files.
	MaxBytes int64 `koanf:"max_bytes" json:"max_bytes"`

	// ThumbnailPx and DetailPx are the bounding box edges per size class.
	ThumbnailPx int `koanf:"thumbnail_px" json:"thumbnail_px"`
	DetailPx    int `koanf:"detail_px" json:"detail_px"`

	// JPEGQuality is the re-encode quality, 1-100.
	JPEGQuality int `koanf:"jpeg_quality" json:"jpeg_quality"`

	// MaxDownloadBytes caps a single source download.
	MaxDownloadBytes int64 `koanf:"max_download_bytes" json:"max_download_bytes"`

	// DownloadTimeout bounds one fetch end to end.
	DownloadTimeout time.Duration `koanf:"download_timeout" json:"download_timeout"`

	// RequestsPerSecond and Burst throttle outbound fetches so bulk
	// preloads stay polite to cover art hosts.
	RequestsPerSecond float64 `koanf:"requests_per_second" json:"requests_per_second"`
	Burst             int     `koanf:"burst" json:"burst"`

	// PreloadWorkers is the concurrent download limit during preload.
	PreloadWorkers int `koanf:"preload_workers" json:"preload_workers"`

	// CleanupMaxAge is how long an unaccessed image survives the periodic
	// cleanup pass.
	CleanupMaxAge time.Duration `koanf:"cleanup_max_age" json:"cleanup_max_age"`

	// UserAgent identifies fetches to source hosts.
	UserAgent string `koanf:"user_agent" json:"user_agent"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Dir:               "data/images",
		MaxBytes:          2 << 30, // 2 GiB
		ThumbnailPx:       150,
		DetailPx:          600,
		JPEGQuality:       85,
		MaxDownloadBytes:  10 << 20, // 10 MiB
		DownloadTimeout:   30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             10,
		PreloadWorkers:    2,
		CleanupMaxAge:     30 * 24 * time.Hour,
		UserAgent:         "VinylVault/1.0",
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	if c.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be positive, got %d", c.MaxBytes)
	}
	if c.ThumbnailPx <= 0 || c.DetailPx <= 0 {
		return fmt.Errorf("image dimensions must be positive")
	}
	if c.ThumbnailPx > c.DetailPx {
		return fmt.Errorf("thumbnail_px %d exceeds detail_px %d", c.ThumbnailPx, c.DetailPx)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be 1-100, got %d", c.JPEGQuality)
	}
	if c.MaxDownloadBytes <= 0 {
		return fmt.Errorf("max_download_bytes must be positive, got %d", c.MaxDownloadBytes)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download_timeout must be positive, got %v", c.DownloadTimeout)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive, got %v", c.RequestsPerSecond)
	}
	if c.PreloadWorkers <= 0 {
		return fmt.Errorf("preload_workers must be positive, got %d", c.PreloadWorkers)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
