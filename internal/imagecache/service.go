// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vinylvault/internal/metrics"
)

const breakerName = "cover-art-fetch"

// Service is the cover art cache: content-addressed processed images on
// disk, metadata in BadgerDB, byte-budget LRU in memory, downloads behind a
// rate limiter and circuit breaker. Safe for concurrent use.
type Service struct {
	cfg    *Config
	logger zerolog.Logger

	store *Store
	lru   *lru
	proc  *processor

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	flight  singleflight.Group

	now func() time.Time
}

// NewService creates the image cache service, creates the image directory
// if needed and reconciles durable metadata with the files actually on
// disk.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg *Config, db *badger.DB, logger zerolog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if db == nil {
		return nil, fmt.Errorf("badger db is required")
	}

	for _, class := range []SizeClass{SizeThumbnail, SizeDetail} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, string(class)), 0o750); err != nil {
			return nil, fmt.Errorf("create image dir: %w", err)
		}
	}

	s := &Service{
		cfg:    cfg,
		logger: logger.With().Str("component", "imagecache").Logger(),
		store:  NewStore(db),
		lru:    newLRU(cfg.MaxBytes),
		proc:   newProcessor(cfg.ThumbnailPx, cfg.DetailPx, cfg.JPEGQuality),
		client: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		now:     time.Now,
	}

	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("fetch circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	if err := s.reconcile(); err != nil {
		return nil, fmt.Errorf("reconcile image cache: %w", err)
	}

	return s, nil
}

// GetImage returns the local path of the processed image for a source URL
// at a size class, fetching and processing on miss. Concurrent misses for
// the same key share one download.
func (s *Service) GetImage(ctx context.Context, url string, class SizeClass) (string, error) {
	if !class.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSizeClass, class)
	}
	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrFetchFailed)
	}

	key := cacheKey(url, class)
	path := s.filePath(key, class)
	now := s.now()

	if s.lru.touch(key, now) {
		metrics.ImageCacheHits.Inc()
		if err := s.store.TouchAccess(key, now); err != nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("touch access failed")
		}
		return path, nil
	}
	metrics.ImageCacheMisses.Inc()

	_, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return nil, s.fetchAndStore(ctx, url, class, key)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// fetchAndStore downloads, processes and persists one image.
func (s *Service) fetchAndStore(ctx context.Context, url string, class SizeClass, key string) error {
	// A racing caller may have populated the key while we waited. The miss
	// was already counted; this re-check stays off the counters.
	if s.lru.contains(key) {
		return nil
	}

	raw, err := s.download(ctx, url)
	if err != nil {
		return err
	}

	processed, err := s.proc.process(raw, class)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if err := s.writeEntry(key, url, class, processed); err != nil {
		return err
	}

	s.logger.Debug().
		Str("key", key).
		Str("class", string(class)).
		Int("bytes", len(processed)).
		Msg("image cached")
	return nil
}

// writeEntry persists file, metadata row and LRU slot, evicting as needed.
// The file lands on disk before the key becomes visible in the LRU, so a
// concurrent hit never resolves to a path without a file behind it.
func (s *Service) writeEntry(key, url string, class SizeClass, data []byte) error {
	size := int64(len(data))
	now := s.now()
	path := s.filePath(key, class)

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}

	evicted, err := s.lru.add(key, size, now)
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("cache %s: %w", key, err)
	}
	for _, old := range evicted {
		s.dropFiles(old)
		metrics.ImageCacheEvictions.Inc()
	}

	entry := &Entry{
		Key:        key,
		URL:        url,
		SizeClass:  class,
		Size:       size,
		CreatedAt:  now,
		LastAccess: now,
	}
	if err := s.store.Put(entry); err != nil {
		s.lru.remove(key)
		_ = os.Remove(path)
		return fmt.Errorf("store image metadata: %w", err)
	}

	metrics.ImageCacheBytes.Set(float64(s.lru.totalBytes()))
	return nil
}

// download fetches raw image bytes through the rate limiter and circuit
// breaker. Every failure mode maps to ErrFetchFailed.
func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	start := s.now()
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.doFetch(ctx, url)
	})
	metrics.ImageDownloadDuration.Observe(s.now().Sub(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ImageDownloads.WithLabelValues("rejected").Inc()
		} else {
			metrics.ImageDownloads.WithLabelValues("failure").Inc()
		}
		s.logger.Warn().Err(err).Str("url", url).Msg("image download failed")
		if errors.Is(err, ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	metrics.ImageDownloads.WithLabelValues("success").Inc()
	return body, nil
}

func (s *Service) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrFetchFailed, ct)
	}

	limited := io.LimitReader(resp.Body, s.cfg.MaxDownloadBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if int64(len(body)) > s.cfg.MaxDownloadBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetchFailed, s.cfg.MaxDownloadBytes)
	}
	return body, nil
}

// Placeholder returns the path of the generated fallback cover for a size
// class, creating it on first use. Regenerating an existing placeholder is
// a no-op.
func (s *Service) Placeholder(class SizeClass) (string, error) {
	px, err := s.proc.targetPx(class)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.cfg.Dir, fmt.Sprintf("placeholder_%s.jpg", class))
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := s.proc.placeholder(px)
	if err != nil {
		return "", fmt.Errorf("generate placeholder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write placeholder: %w", err)
	}

	s.logger.Info().Str("class", string(class)).Msg("placeholder generated")
	return path, nil
}

// PreloadResult reports one preload outcome.
type PreloadResult struct {
	URL string
	Err error
}

// PreloadImages warms the cache for a set of cover URLs in both size
// classes with bounded concurrency. Individual failures are collected, not
// fatal; progress is reported after each URL completes.
func (s *Service) PreloadImages(ctx context.Context, urls []string, progress func(done, total int)) []PreloadResult {
	results := make([]PreloadResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PreloadWorkers)

	done := make(chan int, len(urls))
	go func() {
		completed := 0
		for range done {
			completed++
			if progress != nil {
				progress(completed, len(urls))
			}
		}
	}()

	for i, url := range urls {
		g.Go(func() error {
			var firstErr error
			for _, class := range []SizeClass{SizeThumbnail, SizeDetail} {
				if _, err := s.GetImage(ctx, url, class); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			results[i] = PreloadResult{URL: url, Err: firstErr}
			done <- i
			return nil
		})
	}

	_ = g.Wait()
	close(done)

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	s.logger.Info().
		Int("total", len(urls)).
		Int("failed", failed).
		Msg("preload finished")

	return results
}

// Cleanup removes images whose last access is older than the configured
// max age. Returns the number of entries removed.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	entries, err := s.store.List()
	if err != nil {
		return 0, fmt.Errorf("list image metadata: %w", err)
	}

	cutoff := s.now().Add(-s.cfg.CleanupMaxAge)
	removed := 0
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entries[i].LastAccess.After(cutoff) {
			continue
		}
		s.lru.remove(entries[i].Key)
		s.dropFiles(entries[i].Key)
		removed++
	}

	if removed > 0 {
		metrics.ImageCacheBytes.Set(float64(s.lru.totalBytes()))
		s.logger.Info().Int("removed", removed).Msg("image cleanup pass complete")
	}
	return removed, nil
}

// Clear empties the cache: files, metadata and in-memory index.
func (s *Service) Clear() error {
	for _, key := range s.lru.clear() {
		s.dropFiles(key)
	}
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear image metadata: %w", err)
	}
	metrics.ImageCacheBytes.Set(0)
	s.logger.Info().Msg("image cache cleared")
	return nil
}

// CacheStats returns the cache's observability blob.
func (s *Service) CacheStats() Stats {
	hits, misses, evictions, entries, bytes := s.lru.stats()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = 100 * float64(hits) / float64(total)
	}
	return Stats{
		Entries:    entries,
		TotalBytes: bytes,
		MaxBytes:   s.cfg.MaxBytes,
		Hits:       hits,
		Misses:     misses,
		Evictions:  evictions,
		HitRate:    hitRate,
	}
}

// reconcile aligns durable metadata with the files on disk after a restart:
// rows without files are dropped, surviving rows seed the LRU in ascending
// last-access order so eviction order carries over.
func (s *Service) reconcile() error {
	entries, err := s.store.List()
	if err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastAccess.Before(entries[j].LastAccess)
	})

	orphaned := 0
	for i := range entries {
		info, err := os.Stat(s.filePath(entries[i].Key, entries[i].SizeClass))
		if err != nil {
			if err := s.store.Delete(entries[i].Key); err != nil {
				s.logger.Warn().Err(err).Str("key", entries[i].Key).Msg("dropping orphaned row failed")
			}
			orphaned++
			continue
		}
		// Trust the file system over the row for sizes.
		s.lru.seed(entries[i].Key, info.Size(), entries[i].LastAccess)
	}

	metrics.ImageCacheBytes.Set(float64(s.lru.totalBytes()))
	s.logger.Info().
		Int("entries", s.lru.len()).
		Int64("bytes", s.lru.totalBytes()).
		Int("orphaned", orphaned).
		Msg("image cache reconciled")
	return nil
}

// dropFiles removes a key's file and metadata row, logging but not failing
// on errors. The key hashes url+class so only one class directory holds the
// file; trying both avoids a metadata read on the eviction path.
func (s *Service) dropFiles(key string) {
	for _, class := range []SizeClass{SizeThumbnail, SizeDetail} {
		if err := os.Remove(s.filePath(key, class)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("key", key).Msg("removing image file failed")
		}
	}
	if err := s.store.Delete(key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("removing image metadata failed")
	}
}

func (s *Service) filePath(key string, class SizeClass) string {
	return filepath.Join(s.cfg.Dir, string(class), key+".jpg")
}

func breakerStateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
