// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Cleaner removes expired state and reports how many entries it dropped.
// Satisfied by *auth.LockoutManager.
type Cleaner interface {
	Cleanup(ctx context.Context) (int, error)
}

// CleanupService calls a Cleaner on a fixed interval.
type CleanupService struct {
	cleaner  Cleaner
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	name     string
}

// NewCleanupService creates a periodic cleanup service. A non-positive
// interval means 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCleanupService(name string, cleaner Cleaner, interval time.Duration, logger zerolog.Logger) *CleanupService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CleanupService{
		cleaner:  cleaner,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger.With().Str("service", name).Logger(),
		name:     name,
	}
}

// Serve implements suture.Service. Cleanup errors are logged and the loop
// carries on; the next tick retries.
func (s *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug().Dur("interval", s.interval).Msg("cleanup service started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *CleanupService) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.cleaner.Cleanup(runCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("expired entries removed")
	}
}

func (s *CleanupService) String() string {
	return s.name
}

// Limiter is a rate limiter with a blocking cleanup loop.
// Satisfied by *auth.RateLimiter.
type Limiter interface {
	StartCleanup(interval time.Duration)
	Stop()
}

// LimiterCleanupService runs a Limiter's cleanup loop until the supervisor
// stops it.
type LimiterCleanupService struct {
	limiter  Limiter
	interval time.Duration
	name     string
}

// NewLimiterCleanupService wraps limiter. A non-positive interval means 10 minutes.
func NewLimiterCleanupService(limiter Limiter, interval time.Duration) *LimiterCleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &LimiterCleanupService{
		limiter:  limiter,
		interval: interval,
		name:     "login-limiter-cleanup",
	}
}

// Serve implements suture.Service. The limiter cannot be restarted after
// Stop, so an early return asks suture not to restart it.
func (s *LimiterCleanupService) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.limiter.Stop()
		case <-done:
		}
	}()

	s.limiter.StartCleanup(s.interval)

	if err := ctx.Err(); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}

func (s *LimiterCleanupService) String() string {
	return s.name
}
