// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

// Package services provides suture service wrappers for VinylVault's
// background tasks.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WeightRefresher is the slice of the selection engine the refresh loop
// needs; the narrow interface avoids a package cycle.
type WeightRefresher interface {
	Refresh(ctx context.Context) error
}

// RefreshService periodically rebuilds the selection weight cache so the
// collection picks up rating, play and history changes between selections.
type RefreshService struct {
	engine   WeightRefresher
	interval time.Duration
	logger   zerolog.Logger
}

// NewRefreshService creates the refresh loop wrapper.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(engine WeightRefresher, interval time.Duration, logger zerolog.Logger) *RefreshService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RefreshService{
		engine:   engine,
		interval: interval,
		logger:   logger.With().Str("service", "weight-refresh").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("weight refresh service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("weight refresh service shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := s.engine.Refresh(ctx); err != nil {
				// The engine keeps serving its last-good epoch; log and
				// retry on the next tick rather than crash the service.
				s.logger.Error().Err(err).Msg("scheduled weight refresh failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *RefreshService) String() string {
	return "weight-refresh-service"
}
