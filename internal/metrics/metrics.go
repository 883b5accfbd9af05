// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the selection engine and the cover cache:
// - Selection latency and outcome distribution
// - Weight cache refresh duration and size
// - Image cache efficiency (hits, misses, evictions, bytes)
// - Cover download outcomes and circuit breaker state

var (
	// Selection Engine Metrics
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_selections_total",
			Help: "Total number of random album selections",
		},
		[]string{"source"}, // "weighted", "fallback"
	)

	SelectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vinylvault_selection_duration_seconds",
			Help:    "Duration of a single album selection",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	SelectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinylvault_selection_errors_total",
			Help: "Total number of failed selection attempts",
		},
	)

	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_feedback_total",
			Help: "Total number of feedback signals recorded",
		},
		[]string{"feedback"}, // "like", "dislike", "neutral"
	)

	// Weight Cache Metrics
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vinylvault_weight_refresh_duration_seconds",
			Help:    "Duration of weight cache refresh cycles",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinylvault_weight_refresh_errors_total",
			Help: "Total number of failed weight cache refreshes",
		},
	)

	WeightCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vinylvault_weight_cache_entries",
			Help: "Number of albums in the current weight cache epoch",
		},
	)

	// Image Cache Metrics
	ImageCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinylvault_image_cache_hits_total",
			Help: "Total number of image cache hits",
		},
	)

	ImageCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinylvault_image_cache_misses_total",
			Help: "Total number of image cache misses",
		},
	)

	ImageCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vinylvault_image_cache_evictions_total",
			Help: "Total number of LRU evictions from the image cache",
		},
	)

	ImageCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vinylvault_image_cache_bytes",
			Help: "Current image cache size in bytes",
		},
	)

	// Cover Download Metrics
	ImageDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_image_downloads_total",
			Help: "Total number of cover art download attempts",
		},
		[]string{"outcome"}, // "success", "failure", "rejected"
	)

	ImageDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vinylvault_image_download_duration_seconds",
			Help:    "Duration of cover art downloads including transcode",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vinylvault_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinylvault_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
