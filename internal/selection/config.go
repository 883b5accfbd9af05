// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"fmt"
	"time"
)

// Config contains all parameters for the selection engine.
type Config struct {
	// RatingWeight scales the rating factor.
	// Default: 2.0.
	RatingWeight float64 `koanf:"rating_weight" json:"rating_weight"`

	// PlayCountWeight scales the play-frequency factor.
	// Default: 1.5.
	PlayCountWeight float64 `koanf:"play_count_weight" json:"play_count_weight"`

	// RecencyWeight scales the combined recency factor.
	// Default: 0.8.
	RecencyWeight float64 `koanf:"recency_weight" json:"recency_weight"`

	// GenreDiversityWeight is the boost for genres absent from the recent
	// window. Default: 1.2.
	GenreDiversityWeight float64 `koanf:"genre_diversity_weight" json:"genre_diversity_weight"`

	// ArtistDiversityWeight is reserved for artist-boost tuning; the penalty
	// side is fixed (inverse cube). Default: 1.0.
	ArtistDiversityWeight float64 `koanf:"artist_diversity_weight" json:"artist_diversity_weight"`

	// HistorySize is the ring buffer capacity for recent selections.
	// Default: 50.
	HistorySize int `koanf:"history_size" json:"history_size"`

	// GenreCooldown is how many recent primary genres the diversity factor
	// inspects. Default: 3.
	GenreCooldown int `koanf:"genre_cooldown" json:"genre_cooldown"`

	// ArtistStreak is how many recent artists the diversity factor inspects.
	// Default: 2.
	ArtistStreak int `koanf:"artist_streak" json:"artist_streak"`

	// ExclusionWindow is how long a served album stays ineligible.
	// Default: 24h.
	ExclusionWindow time.Duration `koanf:"exclusion_window" json:"exclusion_window"`

	// RefreshInterval is the staleness bound for the weight cache.
	// Default: 1h.
	RefreshInterval time.Duration `koanf:"refresh_interval" json:"refresh_interval"`

	// SeasonalAdjustment enables the month-of-year genre boost table.
	// Default: true.
	SeasonalAdjustment bool `koanf:"seasonal_adjustment" json:"seasonal_adjustment"`

	// TimeOfDayAdjustment enables the hour-of-day genre boost table.
	// Default: true.
	TimeOfDayAdjustment bool `koanf:"time_of_day_adjustment" json:"time_of_day_adjustment"`

	// FeedbackSmoothing is the EMA smoothing factor for the satisfaction
	// score. Default: 0.1.
	FeedbackSmoothing float64 `koanf:"feedback_smoothing" json:"feedback_smoothing"`

	// OptimizerEnabled enables the advisory config optimizer. The optimizer
	// only suggests; it never rewrites the live config.
	// Default: false.
	OptimizerEnabled bool `koanf:"optimizer_enabled" json:"optimizer_enabled"`

	// Seed is the random seed for deterministic draws in tests.
	// If zero, draws are seeded from the clock.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		RatingWeight:          2.0,
		PlayCountWeight:       1.5,
		RecencyWeight:         0.8,
		GenreDiversityWeight:  1.2,
		ArtistDiversityWeight: 1.0,
		HistorySize:           50,
		GenreCooldown:         3,
		ArtistStreak:          2,
		ExclusionWindow:       24 * time.Hour,
		RefreshInterval:       time.Hour,
		SeasonalAdjustment:    true,
		TimeOfDayAdjustment:   true,
		FeedbackSmoothing:     0.1,
		OptimizerEnabled:      false,
	}
}

// Validate checks the configuration for errors. Construction fails fast on
// an invalid config.
func (c *Config) Validate() error {
	weights := map[string]float64{
		"rating_weight":           c.RatingWeight,
		"play_count_weight":       c.PlayCountWeight,
		"recency_weight":          c.RecencyWeight,
		"genre_diversity_weight":  c.GenreDiversityWeight,
		"artist_diversity_weight": c.ArtistDiversityWeight,
	}
	sum := 0.0
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, w)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}

	if c.HistorySize < 1 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.GenreCooldown < 0 {
		return fmt.Errorf("genre_cooldown must be non-negative, got %d", c.GenreCooldown)
	}
	if c.ArtistStreak < 0 {
		return fmt.Errorf("artist_streak must be non-negative, got %d", c.ArtistStreak)
	}
	if c.ExclusionWindow < 0 {
		return fmt.Errorf("exclusion_window must be non-negative, got %v", c.ExclusionWindow)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %v", c.RefreshInterval)
	}
	if c.FeedbackSmoothing <= 0 || c.FeedbackSmoothing > 1 {
		return fmt.Errorf("feedback_smoothing must be in (0, 1], got %f", c.FeedbackSmoothing)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All fields are value types.
	cp := *c
	return &cp
}
