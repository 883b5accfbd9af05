// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRefresher struct {
	calls atomic.Int64
	err   error
}

func (m *mockRefresher) Refresh(_ context.Context) error {
	m.calls.Add(1)
	return m.err
}

type mockCleaner struct {
	calls atomic.Int64
}

func (m *mockCleaner) Cleanup(_ context.Context) (int, error) {
	m.calls.Add(1)
	return 1, nil
}

func TestRefreshServiceTicks(t *testing.T) {
	engine := &mockRefresher{}
	svc := NewRefreshService(engine, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want deadline exceeded", err)
	}
	if engine.calls.Load() == 0 {
		t.Error("refresh never ticked")
	}
}

func TestRefreshServiceSurvivesErrors(t *testing.T) {
	engine := &mockRefresher{err: errors.New("refresh boom")}
	svc := NewRefreshService(engine, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	// Failures must not terminate the loop; it returns only on ctx.
	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want deadline exceeded", err)
	}
	if engine.calls.Load() < 2 {
		t.Errorf("refresh attempted %d times, want retries after failure", engine.calls.Load())
	}
}

func TestRefreshServiceDefaultInterval(t *testing.T) {
	svc := NewRefreshService(&mockRefresher{}, 0, zerolog.Nop())
	if svc.interval != time.Hour {
		t.Errorf("interval = %v, want 1h default", svc.interval)
	}
}

func TestCleanupServiceTicks(t *testing.T) {
	cache := &mockCleaner{}
	svc := NewCleanupService(cache, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want deadline exceeded", err)
	}
	if cache.calls.Load() == 0 {
		t.Error("cleanup never ticked")
	}
}

func TestServiceNames(t *testing.T) {
	if got := NewRefreshService(&mockRefresher{}, 0, zerolog.Nop()).String(); got != "weight-refresh-service" {
		t.Errorf("String() = %q", got)
	}
	if got := NewCleanupService(&mockCleaner{}, 0, zerolog.Nop()).String(); got != "image-cleanup-service" {
		t.Errorf("String() = %q", got)
	}
}
