// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"math"
	"strings"
	"time"
)

// Calculator turns one album's attributes plus recent-selection context into
// dimensionless weight factors. It is stateless given its configuration; the
// injectable clock exists for deterministic tests.
type Calculator struct {
	cfg *Config
	now func() time.Time
}

// NewCalculator creates a Calculator for the given configuration.
func NewCalculator(cfg *Config) *Calculator {
	return &Calculator{cfg: cfg, now: time.Now}
}

// RatingFactor computes the rating factor. Unrated albums get a neutral
// constant; rated albums scale quadratically so a 5-star album is rewarded
// disproportionately over a 3-star one.
func (c *Calculator) RatingFactor(rating int) float64 {
	if rating <= 0 {
		return 0.5
	}
	r := float64(rating) / 5.0
	return r*r*c.cfg.RatingWeight + 0.1
}

// PlayCountFactor computes the play-frequency factor. The logarithm damps
// runaway favorites; avgPlayCount is computed once per refresh epoch.
func (c *Calculator) PlayCountFactor(playCount int, avgPlayCount float64) float64 {
	if avgPlayCount <= 0 {
		return 1.0
	}
	normalized := float64(playCount) / avgPlayCount
	return math.Log(normalized+1)*c.cfg.PlayCountWeight + 0.1
}

// RecencyFactor combines exponential decay of days-since-added over a
// 365-day constant with a starvation boost for albums not played recently.
// Never-played albums get a flat 2.0 boost.
func (c *Calculator) RecencyFactor(dateAdded time.Time, lastPlayed *time.Time) float64 {
	now := c.now()

	daysSinceAdded := now.Sub(dateAdded).Hours() / 24
	if daysSinceAdded < 0 {
		daysSinceAdded = 0
	}
	recency := math.Exp(-daysSinceAdded / 365.0)

	var starvation float64
	if lastPlayed != nil {
		daysSincePlayed := now.Sub(*lastPlayed).Hours() / 24
		if daysSincePlayed < 0 {
			daysSincePlayed = 0
		}
		starvation = math.Log(daysSincePlayed+1) / 10.0
	} else {
		starvation = 2.0
	}

	return (recency + starvation) * c.cfg.RecencyWeight
}

// GenreDiversityFactor boosts albums whose primary genre is absent from the
// recent-genre window and penalizes repeats superlinearly (inverse square).
func (c *Calculator) GenreDiversityFactor(genres, recentGenres []string) float64 {
	if len(genres) == 0 || genres[0] == "" {
		return 1.0
	}
	primary := genres[0]

	count := 0
	for _, g := range recentGenres {
		if g == primary {
			count++
		}
	}
	if count == 0 {
		return 1.0 + c.cfg.GenreDiversityWeight
	}
	return math.Max(0.1, 1.0/float64(count*count))
}

// ArtistDiversityFactor penalizes artist repetition harder than genre
// repetition: inverse cube with a lower floor.
func (c *Calculator) ArtistDiversityFactor(artist string, recentArtists []string) float64 {
	if artist == "" {
		return 1.0
	}

	count := 0
	for _, a := range recentArtists {
		if a == artist {
			count++
		}
	}
	if count == 0 {
		return 1.0
	}
	return math.Max(0.05, 1.0/float64(count*count*count))
}

// seasonalBoosts maps genre substrings to the months they get a 1.3x boost.
var seasonalBoosts = map[string][]time.Month{
	"christmas":  {time.December, time.January},
	"holiday":    {time.December, time.January},
	"jazz":       {time.October, time.November, time.December},
	"classical":  {time.October, time.November, time.December, time.January, time.February},
	"electronic": {time.June, time.July, time.August},
	"reggae":     {time.June, time.July, time.August},
	"folk":       {time.September, time.October, time.November},
	"acoustic":   {time.September, time.October, time.November},
}

// SeasonalMultiplier returns the month-of-year boost for the album's primary
// genre, or 1.0 when disabled or not applicable.
func (c *Calculator) SeasonalMultiplier(genres []string) float64 {
	if !c.cfg.SeasonalAdjustment || len(genres) == 0 {
		return 1.0
	}

	month := c.now().Month()
	primary := strings.ToLower(genres[0])

	for key, months := range seasonalBoosts {
		if !strings.Contains(primary, key) {
			continue
		}
		for _, m := range months {
			if m == month {
				return 1.3
			}
		}
	}
	return 1.0
}

// TimeOfDayMultiplier returns the hour-of-day boost for the album's primary
// genre: calm genres in the morning, energetic in the evening, ambient late.
func (c *Calculator) TimeOfDayMultiplier(genres []string) float64 {
	if !c.cfg.TimeOfDayAdjustment || len(genres) == 0 {
		return 1.0
	}

	hour := c.now().Hour()
	primary := strings.ToLower(genres[0])

	matches := func(keys ...string) bool {
		for _, k := range keys {
			if strings.Contains(primary, k) {
				return true
			}
		}
		return false
	}

	switch {
	case hour >= 6 && hour <= 10:
		if matches("classical", "acoustic", "folk", "jazz") {
			return 1.2
		}
	case hour >= 18 && hour <= 22:
		if matches("electronic", "rock", "pop") {
			return 1.2
		}
	case hour >= 22 || hour <= 6:
		if matches("ambient", "classical", "jazz") {
			return 1.3
		}
	}
	return 1.0
}

// Combine computes the full weight breakdown for one album given the current
// selection context. The final weight is floored at MinWeight so every album
// keeps a nonzero selection probability.
func (c *Calculator) Combine(album *AlbumSnapshot, avgPlayCount float64, recentGenres, recentArtists []string) WeightFactors {
	f := WeightFactors{
		Rating:          c.RatingFactor(album.Rating),
		PlayCount:       c.PlayCountFactor(album.PlayCount, avgPlayCount),
		Recency:         c.RecencyFactor(album.DateAdded, album.LastPlayed),
		GenreDiversity:  c.GenreDiversityFactor(album.Genres, recentGenres),
		ArtistDiversity: c.ArtistDiversityFactor(album.Artist, recentArtists),
	}

	final := f.Rating * f.PlayCount * f.Recency * f.GenreDiversity * f.ArtistDiversity
	final *= c.SeasonalMultiplier(album.Genres)
	final *= c.TimeOfDayMultiplier(album.Genres)

	f.Final = math.Max(MinWeight, final)
	return f
}
