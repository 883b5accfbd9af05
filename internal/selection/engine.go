// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vinylvault/internal/metrics"
)

// ErrEmptyCollection is returned when a selection is requested against an
// empty collection. Selection never fails for any other reason: a populated
// collection always yields an album.
var ErrEmptyCollection = errors.New("selection: collection is empty")

// Engine orchestrates the weight calculator, selection history and weight
// cache to answer "pick one album now" and accept feedback signals.
// It is safe for concurrent use. Construct it explicitly at the composition
// root; there is no package-level instance.
type Engine struct {
	cfg     *Config
	logger  zerolog.Logger
	library Library
	calc    *Calculator
	history *History

	// mu guards the epoch swap and serve bookkeeping. Refresh computation
	// happens off this lock; only the table swap is held under it.
	mu          sync.Mutex
	table       *weightTable
	lastRefresh time.Time

	// refreshMu serializes whole refresh cycles.
	refreshMu sync.Mutex

	rng   *rand.Rand
	rngMu sync.Mutex

	totalSelections    atomic.Int64
	fallbackSelections atomic.Int64
	refreshCount       atomic.Int64

	emaMu         sync.Mutex
	avgResponseMS float64
	satisfaction  float64

	now func() time.Time
}

// NewEngine creates a selection engine. Configuration errors fail fast here.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, library Library, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if library == nil {
		return nil, fmt.Errorf("library is required")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		cfg:     cfg,
		logger:  logger.With().Str("component", "selection").Logger(),
		library: library,
		calc:    NewCalculator(cfg),
		history: NewHistory(cfg.HistorySize),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // selection shuffling, not crypto
		now:     time.Now,
	}, nil
}

// Init seeds the in-memory history from the durable selection log (last
// seven days, capped at the history size) and builds the first weight cache
// epoch. A failed initial refresh is logged but not fatal: the uniform
// fallback path keeps selection available.
func (e *Engine) Init(ctx context.Context) error {
	since := e.now().Add(-7 * 24 * time.Hour)
	entries, err := e.library.RecentSelections(ctx, since, e.cfg.HistorySize)
	if err != nil {
		e.logger.Error().Err(err).Msg("loading selection history failed")
	} else {
		// The log is newest-first; replay oldest-first.
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
		e.history.Seed(entries)
		e.logger.Info().Int("entries", len(entries)).Msg("selection history seeded")
	}

	if err := e.Refresh(ctx); err != nil {
		e.logger.Error().Err(err).Msg("initial weight refresh failed")
	}
	return nil
}

// Refresh recomputes the weight cache for every album outside the exclusion
// window and atomically swaps in the new epoch. The O(n) computation runs
// off the engine lock; only the swap is locked, so a concurrent reader
// always sees either the old or the new epoch in full.
func (e *Engine) Refresh(ctx context.Context) error {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	start := e.now()

	albums, err := e.library.ListAlbums(ctx)
	if err != nil {
		metrics.RefreshErrors.Inc()
		// Keep serving the last-good epoch.
		return fmt.Errorf("list albums: %w", err)
	}
	if len(albums) == 0 {
		e.logger.Warn().Msg("no albums found for weight refresh")
		return nil
	}

	totalPlays := 0
	for i := range albums {
		totalPlays += albums[i].PlayCount
	}
	avgPlayCount := float64(totalPlays) / float64(len(albums))

	recentGenres := e.history.RecentGenres(e.cfg.GenreCooldown)
	recentArtists := e.history.RecentArtists(e.cfg.ArtistStreak)
	excluded := make(map[int64]struct{})
	for _, id := range e.history.RecentAlbums(e.cfg.ExclusionWindow) {
		excluded[id] = struct{}{}
	}

	rows := make([]WeightRow, 0, len(albums))
	snapshots := make(map[int64]AlbumSnapshot, len(albums))
	for i := range albums {
		snapshots[albums[i].ID] = albums[i]
		if _, skip := excluded[albums[i].ID]; skip {
			continue
		}
		rows = append(rows, WeightRow{
			AlbumID:    albums[i].ID,
			Factors:    e.calc.Combine(&albums[i], avgPlayCount, recentGenres, recentArtists),
			ComputedAt: e.now(),
		})
	}

	table := newWeightTable(rows, snapshots)

	e.mu.Lock()
	e.table = table
	e.lastRefresh = e.now()
	e.mu.Unlock()

	e.refreshCount.Add(1)
	elapsed := e.now().Sub(start)
	metrics.RefreshDuration.Observe(elapsed.Seconds())
	metrics.WeightCacheEntries.Set(float64(len(rows)))

	e.logger.Info().
		Int("entries", len(rows)).
		Int("excluded", len(excluded)).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Msg("weight cache refreshed")

	return nil
}

// TriggerRefresh schedules a refresh without blocking the caller, typically
// after a collection-changing event. The returned channel delivers the
// refresh outcome; callers may await it or drop it.
func (e *Engine) TriggerRefresh(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := e.Refresh(ctx)
		if err != nil {
			e.logger.Error().Err(err).Msg("triggered refresh failed")
		}
		done <- err
	}()
	return done
}

// SelectRandom draws one album with probability proportional to its cached
// weight. Albums inside the exclusion window are skipped; if no weighted row
// is eligible the draw falls back to uniform selection over the unfiltered
// collection, so the call only fails on an empty collection.
func (e *Engine) SelectRandom(ctx context.Context, opts SelectOptions) (*Selection, error) {
	start := e.now()

	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	e.maybeRefresh(ctx)

	excluded := make(map[int64]struct{})
	for _, id := range e.history.RecentAlbums(e.cfg.ExclusionWindow) {
		excluded[id] = struct{}{}
	}

	sel, err := e.drawWeighted(opts.SessionID, excluded)
	if err != nil || sel == nil {
		sel, err = e.drawFallback(ctx, opts.SessionID, excluded)
		if err != nil {
			metrics.SelectionErrors.Inc()
			return nil, err
		}
	}

	e.recordSelection(ctx, sel, opts)

	elapsed := e.now().Sub(start)
	metrics.SelectionDuration.Observe(elapsed.Seconds())
	e.observeLatency(float64(elapsed.Milliseconds()))

	return sel, nil
}

// maybeRefresh rebuilds the weight cache when it is older than the refresh
// interval. Failures are logged; the stale epoch remains servable.
func (e *Engine) maybeRefresh(ctx context.Context) {
	e.mu.Lock()
	stale := e.table == nil || e.now().Sub(e.lastRefresh) > e.cfg.RefreshInterval
	e.mu.Unlock()

	if stale {
		if err := e.Refresh(ctx); err != nil {
			e.logger.Error().Err(err).Msg("stale refresh failed, serving last-good cache")
		}
	}
}

// drawWeighted attempts a weighted draw from the current epoch.
func (e *Engine) drawWeighted(sessionID string, excluded map[int64]struct{}) (*Selection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.table == nil {
		return nil, nil
	}

	e.rngMu.Lock()
	row := e.table.draw(e.rng, excluded)
	e.rngMu.Unlock()
	if row == nil {
		return nil, nil
	}

	album, ok := e.table.album(row.AlbumID)
	if !ok {
		return nil, nil
	}

	now := e.now()
	e.table.markServed(row.AlbumID, now)

	metrics.SelectionsTotal.WithLabelValues("weighted").Inc()
	return &Selection{
		Album:      album,
		Factors:    row.Factors,
		SessionID:  sessionID,
		SelectedAt: now,
	}, nil
}

// drawFallback selects uniformly. Non-excluded albums are preferred; when
// every album sits inside the exclusion window the draw covers the full
// collection so the operation cannot fail while one album exists.
func (e *Engine) drawFallback(ctx context.Context, sessionID string, excluded map[int64]struct{}) (*Selection, error) {
	albums, err := e.library.ListAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("fallback selection: %w", err)
	}
	if len(albums) == 0 {
		return nil, ErrEmptyCollection
	}

	eligible := albums[:0:0]
	for i := range albums {
		if _, skip := excluded[albums[i].ID]; !skip {
			eligible = append(eligible, albums[i])
		}
	}
	if len(eligible) == 0 {
		eligible = albums
	}

	e.rngMu.Lock()
	album := eligible[e.rng.Intn(len(eligible))]
	e.rngMu.Unlock()

	e.fallbackSelections.Add(1)
	metrics.SelectionsTotal.WithLabelValues("fallback").Inc()
	e.logger.Debug().Int64("album_id", album.ID).Msg("weighted cache empty, uniform fallback")

	return &Selection{
		Album:      album,
		SessionID:  sessionID,
		Fallback:   true,
		SelectedAt: e.now(),
	}, nil
}

// recordSelection updates history, the durable log and optional play count.
// Collaborator failures never fail the selection path.
func (e *Engine) recordSelection(ctx context.Context, sel *Selection, opts SelectOptions) {
	entry := HistoryEntry{
		AlbumID:   sel.Album.ID,
		Timestamp: sel.SelectedAt,
		Genres:    sel.Album.Genres,
		Artist:    sel.Album.Artist,
		Rating:    sel.Album.Rating,
		PlayCount: sel.Album.PlayCount,
		SessionID: sel.SessionID,
	}
	if !sel.Fallback {
		factors := sel.Factors
		entry.Factors = &factors
	}

	e.history.Add(entry)
	e.totalSelections.Add(1)

	if err := e.library.AppendSelection(ctx, entry); err != nil {
		e.logger.Error().Err(err).Int64("album_id", sel.Album.ID).Msg("recording selection failed")
	}

	if opts.RecordPlay {
		if err := e.library.RecordPlay(ctx, sel.Album.ID); err != nil {
			e.logger.Error().Err(err).Int64("album_id", sel.Album.ID).Msg("recording play failed")
		}
	}
}

// RecordFeedback attaches feedback to the most recent unfed-back log entry
// for the album+session pair and folds non-neutral signals into the
// satisfaction EMA. Feedback never alters past weight computations.
func (e *Engine) RecordFeedback(ctx context.Context, albumID int64, fb Feedback, sessionID string) error {
	if !fb.Valid() {
		return fmt.Errorf("invalid feedback value %d", fb)
	}

	if err := e.library.AttachFeedback(ctx, albumID, sessionID, fb); err != nil {
		return fmt.Errorf("attach feedback: %w", err)
	}

	metrics.FeedbackTotal.WithLabelValues(fb.String()).Inc()

	if fb != FeedbackNeutral {
		update := 0.0
		if fb == FeedbackLike {
			update = 1.0
		}
		alpha := e.cfg.FeedbackSmoothing
		e.emaMu.Lock()
		e.satisfaction = alpha*update + (1-alpha)*e.satisfaction
		e.emaMu.Unlock()
	}

	e.logger.Debug().
		Int64("album_id", albumID).
		Str("feedback", fb.String()).
		Msg("feedback recorded")

	return nil
}

// observeLatency folds one selection latency sample into the EMA.
func (e *Engine) observeLatency(ms float64) {
	const alpha = 0.1
	e.emaMu.Lock()
	e.avgResponseMS = alpha*ms + (1-alpha)*e.avgResponseMS
	e.emaMu.Unlock()
}

// Statistics returns the engine's observability blob.
func (e *Engine) Statistics() Stats {
	e.mu.Lock()
	count, avg, maxW, minW := e.table.distribution()
	lastRefresh := e.lastRefresh
	e.mu.Unlock()

	e.emaMu.Lock()
	avgMS := e.avgResponseMS
	satisfaction := e.satisfaction
	e.emaMu.Unlock()

	return Stats{
		TotalSelections:    e.totalSelections.Load(),
		FallbackSelections: e.fallbackSelections.Load(),
		AvgResponseTimeMS:  avgMS,
		SatisfactionScore:  satisfaction,
		CachedAlbums:       count,
		AvgWeight:          avg,
		MaxWeight:          maxW,
		MinWeight:          minW,
		HistorySize:        e.history.Len(),
		LastRefresh:        lastRefresh,
		RefreshCount:       e.refreshCount.Load(),
	}
}

// ClearHistory drops the in-memory history, for tests and explicit resets.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}
