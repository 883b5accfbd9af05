// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"math"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRatingFactor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("unrated gets neutral constant", func(t *testing.T) {
		if got := calc.RatingFactor(0); got != 0.5 {
			t.Errorf("RatingFactor(0) = %v, want 0.5", got)
		}
		if got := calc.RatingFactor(-1); got != 0.5 {
			t.Errorf("RatingFactor(-1) = %v, want 0.5", got)
		}
	})

	t.Run("strictly increasing in rating", func(t *testing.T) {
		prev := calc.RatingFactor(1)
		for r := 2; r <= 5; r++ {
			got := calc.RatingFactor(r)
			if got <= prev {
				t.Errorf("RatingFactor(%d) = %v, not greater than RatingFactor(%d) = %v", r, got, r-1, prev)
			}
			prev = got
		}
	})

	t.Run("five stars scales quadratically", func(t *testing.T) {
		cfg := DefaultConfig()
		want := 1.0*cfg.RatingWeight + 0.1
		if got := calc.RatingFactor(5); math.Abs(got-want) > 1e-9 {
			t.Errorf("RatingFactor(5) = %v, want %v", got, want)
		}
	})
}

func TestPlayCountFactor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	t.Run("zero average is neutral", func(t *testing.T) {
		if got := calc.PlayCountFactor(3, 0); got != 1.0 {
			t.Errorf("PlayCountFactor(3, 0) = %v, want 1.0", got)
		}
	})

	t.Run("logarithmic damping", func(t *testing.T) {
		low := calc.PlayCountFactor(1, 5)
		high := calc.PlayCountFactor(50, 5)
		if high <= low {
			t.Errorf("more plays should score higher: low=%v high=%v", low, high)
		}
		// Ten times the plays must not give ten times the factor.
		if high >= 10*low {
			t.Errorf("factor growth not damped: low=%v high=%v", low, high)
		}
	})
}

func TestRecencyFactor(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	calc := NewCalculator(DefaultConfig())
	calc.now = fixedClock(now)

	t.Run("never played gets flat starvation boost", func(t *testing.T) {
		added := now.AddDate(0, 0, -30)
		got := calc.RecencyFactor(added, nil)
		want := (math.Exp(-30.0/365.0) + 2.0) * DefaultConfig().RecencyWeight
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("RecencyFactor = %v, want %v", got, want)
		}
	})

	t.Run("starvation grows with idle time", func(t *testing.T) {
		added := now.AddDate(-1, 0, 0)
		recent := now.AddDate(0, 0, -2)
		stale := now.AddDate(0, 0, -200)
		fresh := calc.RecencyFactor(added, &recent)
		starved := calc.RecencyFactor(added, &stale)
		if starved <= fresh {
			t.Errorf("long-idle album should outrank recently played: fresh=%v starved=%v", fresh, starved)
		}
	})

	t.Run("future timestamps clamp to zero days", func(t *testing.T) {
		future := now.Add(48 * time.Hour)
		got := calc.RecencyFactor(future, &future)
		want := (1.0 + 0.0) * DefaultConfig().RecencyWeight
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("RecencyFactor with future dates = %v, want %v", got, want)
		}
	})
}

func TestGenreDiversityFactor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name         string
		genres       []string
		recentGenres []string
		want         float64
	}{
		{"no genres is neutral", nil, []string{"Rock"}, 1.0},
		{"fresh genre gets boost", []string{"Jazz"}, []string{"Rock", "Pop"}, 1.0 + DefaultConfig().GenreDiversityWeight},
		{"single repeat", []string{"Rock"}, []string{"Rock"}, 1.0},
		{"double repeat inverse square", []string{"Rock"}, []string{"Rock", "Rock"}, 0.25},
		{"heavy repeat hits floor", []string{"Rock"}, []string{"Rock", "Rock", "Rock", "Rock"}, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.GenreDiversityFactor(tt.genres, tt.recentGenres)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("GenreDiversityFactor(%v, %v) = %v, want %v", tt.genres, tt.recentGenres, got, tt.want)
			}
		})
	}
}

func TestArtistDiversityFactor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name          string
		artist        string
		recentArtists []string
		want          float64
	}{
		{"unknown artist neutral", "", []string{"Coltrane"}, 1.0},
		{"fresh artist neutral", "Miles Davis", []string{"Coltrane"}, 1.0},
		{"single repeat inverse cube", "Coltrane", []string{"Coltrane"}, 1.0},
		{"double repeat", "Coltrane", []string{"Coltrane", "Coltrane"}, 0.125},
		{"triple repeat hits floor", "Coltrane", []string{"Coltrane", "Coltrane", "Coltrane"}, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.ArtistDiversityFactor(tt.artist, tt.recentArtists)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ArtistDiversityFactor(%q, %v) = %v, want %v", tt.artist, tt.recentArtists, got, tt.want)
			}
		})
	}
}

func TestSeasonalMultiplier(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewCalculator(cfg)

	t.Run("christmas in december", func(t *testing.T) {
		calc.now = fixedClock(time.Date(2026, time.December, 20, 12, 0, 0, 0, time.UTC))
		if got := calc.SeasonalMultiplier([]string{"Christmas Jazz"}); got != 1.3 {
			t.Errorf("SeasonalMultiplier = %v, want 1.3", got)
		}
	})

	t.Run("christmas in july", func(t *testing.T) {
		calc.now = fixedClock(time.Date(2026, time.July, 4, 12, 0, 0, 0, time.UTC))
		if got := calc.SeasonalMultiplier([]string{"Christmas"}); got != 1.0 {
			t.Errorf("SeasonalMultiplier = %v, want 1.0", got)
		}
	})

	t.Run("disabled config is neutral", func(t *testing.T) {
		off := DefaultConfig()
		off.SeasonalAdjustment = false
		c := NewCalculator(off)
		c.now = fixedClock(time.Date(2026, time.December, 20, 12, 0, 0, 0, time.UTC))
		if got := c.SeasonalMultiplier([]string{"Christmas"}); got != 1.0 {
			t.Errorf("SeasonalMultiplier disabled = %v, want 1.0", got)
		}
	})
}

func TestTimeOfDayMultiplier(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	tests := []struct {
		name   string
		hour   int
		genres []string
		want   float64
	}{
		{"morning classical", 8, []string{"Classical"}, 1.2},
		{"morning rock neutral", 8, []string{"Rock"}, 1.0},
		{"evening electronic", 20, []string{"Electronic"}, 1.2},
		{"late night ambient", 23, []string{"Ambient"}, 1.3},
		{"early hours jazz", 2, []string{"Jazz"}, 1.3},
		{"midday anything neutral", 13, []string{"Classical"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc.now = fixedClock(time.Date(2026, time.March, 15, tt.hour, 30, 0, 0, time.UTC))
			got := calc.TimeOfDayMultiplier(tt.genres)
			if got != tt.want {
				t.Errorf("TimeOfDayMultiplier(%v) at hour %d = %v, want %v", tt.genres, tt.hour, got, tt.want)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	// Midday in spring avoids seasonal and time-of-day boosts.
	now := time.Date(2026, time.April, 15, 13, 0, 0, 0, time.UTC)
	calc := NewCalculator(DefaultConfig())
	calc.now = fixedClock(now)

	t.Run("final weight never below floor", func(t *testing.T) {
		played := now.Add(-1 * time.Hour)
		album := AlbumSnapshot{
			ID:         1,
			Artist:     "Coltrane",
			Genres:     []string{"Jazz"},
			Rating:     1,
			PlayCount:  0,
			DateAdded:  now.AddDate(-10, 0, 0),
			LastPlayed: &played,
		}
		recentGenres := []string{"Jazz", "Jazz", "Jazz", "Jazz"}
		recentArtists := []string{"Coltrane", "Coltrane", "Coltrane"}
		f := calc.Combine(&album, 100, recentGenres, recentArtists)
		if f.Final < MinWeight {
			t.Errorf("Final = %v, below floor %v", f.Final, MinWeight)
		}
	})

	t.Run("diverse high-rated album outranks repeated low-rated", func(t *testing.T) {
		played := now.AddDate(0, 0, -30)
		strong := AlbumSnapshot{
			ID: 1, Artist: "Alice", Genres: []string{"Jazz"},
			Rating: 5, PlayCount: 3, DateAdded: now.AddDate(0, -6, 0), LastPlayed: &played,
		}
		weak := AlbumSnapshot{
			ID: 2, Artist: "Bob", Genres: []string{"Rock"},
			Rating: 2, PlayCount: 3, DateAdded: now.AddDate(0, -6, 0), LastPlayed: &played,
		}
		recentGenres := []string{"Rock", "Rock"}
		recentArtists := []string{"Bob"}

		fs := calc.Combine(&strong, 3, recentGenres, recentArtists)
		fw := calc.Combine(&weak, 3, recentGenres, recentArtists)
		if fs.Final <= fw.Final {
			t.Errorf("strong album %v should outrank weak album %v", fs.Final, fw.Final)
		}
	})

	t.Run("weights monotonic in rating with empty history", func(t *testing.T) {
		albums := []AlbumSnapshot{
			{ID: 1, Artist: "A", Genres: []string{"Rock"}, Rating: 5, DateAdded: now.AddDate(0, -6, 0)},
			{ID: 2, Artist: "B", Genres: []string{"Jazz"}, Rating: 1, DateAdded: now.AddDate(0, -6, 0)},
			{ID: 3, Artist: "C", Genres: []string{"Rock"}, Rating: 3, DateAdded: now.AddDate(0, -6, 0)},
		}
		finals := make([]float64, len(albums))
		for i := range albums {
			finals[i] = calc.Combine(&albums[i], 0, nil, nil).Final
		}
		if !(finals[0] > finals[2] && finals[2] > finals[1]) {
			t.Errorf("want w(5-star) > w(3-star) > w(1-star), got %v > %v > %v",
				finals[0], finals[2], finals[1])
		}
	})

	t.Run("all factor fields populated", func(t *testing.T) {
		album := AlbumSnapshot{
			ID: 1, Artist: "Alice", Genres: []string{"Jazz"},
			Rating: 4, PlayCount: 2, DateAdded: now.AddDate(0, -1, 0),
		}
		f := calc.Combine(&album, 2, nil, nil)
		for name, v := range map[string]float64{
			"Rating":          f.Rating,
			"PlayCount":       f.PlayCount,
			"Recency":         f.Recency,
			"GenreDiversity":  f.GenreDiversity,
			"ArtistDiversity": f.ArtistDiversity,
			"Final":           f.Final,
		} {
			if v <= 0 {
				t.Errorf("%s factor = %v, want > 0", name, v)
			}
		}
	})
}
