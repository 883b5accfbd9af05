// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"context"
	"fmt"
	"time"
)

const (
	optimizerLookback   = 30 * 24 * time.Hour
	optimizerMinSamples = 10
	optimizerStep       = 0.1
	optimizerMinWeight  = 0.5
	optimizerMaxWeight  = 4.0
)

// Suggestion is an advisory weight adjustment derived from recent feedback.
// It is never applied automatically; operators review and update the
// configuration themselves.
type Suggestion struct {
	// RatingWeight is the proposed replacement value.
	RatingWeight float64 `json:"rating_weight"`

	// Current is the weight the suggestion was computed against.
	Current float64 `json:"current"`

	// Samples is the number of feedback-bearing selections analyzed.
	Samples int `json:"samples"`

	// Reason explains the adjustment in one line.
	Reason string `json:"reason"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Optimize analyzes the last 30 days of feedback-bearing selections and
// suggests a rating-weight adjustment: when liked selections carry clearly
// higher ratings than disliked ones the rating signal is working and gets a
// nudge up, and vice versa. Returns nil when disabled or when there is not
// enough signal to say anything.
func (e *Engine) Optimize(ctx context.Context) (*Suggestion, error) {
	if !e.cfg.OptimizerEnabled {
		return nil, nil
	}

	since := e.now().Add(-optimizerLookback)
	entries, err := e.library.RecentSelections(ctx, since, 0)
	if err != nil {
		return nil, fmt.Errorf("loading feedback history: %w", err)
	}

	var (
		likedSum, dislikedSum     float64
		likedCount, dislikedCount int
	)
	for i := range entries {
		fb := entries[i].Feedback
		if fb == nil || *fb == FeedbackNeutral {
			continue
		}
		switch *fb {
		case FeedbackLike:
			likedSum += float64(entries[i].Rating)
			likedCount++
		case FeedbackDislike:
			dislikedSum += float64(entries[i].Rating)
			dislikedCount++
		}
	}

	samples := likedCount + dislikedCount
	if likedCount == 0 || dislikedCount == 0 || samples < optimizerMinSamples {
		e.logger.Debug().Int("samples", samples).Msg("optimizer: insufficient feedback signal")
		return nil, nil
	}

	likedAvg := likedSum / float64(likedCount)
	dislikedAvg := dislikedSum / float64(dislikedCount)
	gap := likedAvg - dislikedAvg

	current := e.cfg.RatingWeight
	proposed := current
	var reason string
	switch {
	case gap >= 0.5:
		proposed = clampWeight(current * (1 + optimizerStep))
		reason = fmt.Sprintf("liked selections rate %.1f above disliked; rating signal is predictive", gap)
	case gap <= -0.5:
		proposed = clampWeight(current * (1 - optimizerStep))
		reason = fmt.Sprintf("disliked selections rate %.1f above liked; rating signal misleads", -gap)
	default:
		e.logger.Debug().Float64("gap", gap).Msg("optimizer: rating gap inconclusive")
		return nil, nil
	}

	if proposed == current {
		return nil, nil
	}

	s := &Suggestion{
		RatingWeight: proposed,
		Current:      current,
		Samples:      samples,
		Reason:       reason,
		GeneratedAt:  e.now(),
	}

	e.logger.Info().
		Float64("current", current).
		Float64("proposed", proposed).
		Int("samples", samples).
		Msg("optimizer produced weight suggestion")

	return s, nil
}

func clampWeight(w float64) float64 {
	if w < optimizerMinWeight {
		return optimizerMinWeight
	}
	if w > optimizerMaxWeight {
		return optimizerMaxWeight
	}
	return w
}
