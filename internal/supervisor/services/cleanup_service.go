// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ImageCleaner is the slice of the image cache the cleanup loop needs.
type ImageCleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// CleanupService periodically removes image cache entries that have not
// been accessed within the configured retention.
type CleanupService struct {
	cache    ImageCleaner
	interval time.Duration
	logger   zerolog.Logger
}

// NewCleanupService creates the image cleanup loop wrapper.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCleanupService(cache ImageCleaner, interval time.Duration, logger zerolog.Logger) *CleanupService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupService{
		cache:    cache,
		interval: interval,
		logger:   logger.With().Str("service", "image-cleanup").Logger(),
	}
}

// Serve implements suture.Service.
func (s *CleanupService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("image cleanup service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("image cleanup service shutting down")
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.cache.Cleanup(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("image cleanup pass failed")
				continue
			}
			if removed > 0 {
				s.logger.Info().Int("removed", removed).Msg("image cleanup pass done")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *CleanupService) String() string {
	return "image-cleanup-service"
}
