// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bookshelf/internal/cache"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
)

// SnapshotSource loads every rating plus the known user and book ids.
type SnapshotSource interface {
	RecommendationSnapshot(ctx context.Context) (Snapshot, error)
}

// CatalogSource provides the fallback ranking input and book hydration.
type CatalogSource interface {
	BookAverages(ctx context.Context) ([]ItemAverage, error)

	// GetBooksByIDs returns full book records in the order of ids,
	// skipping ids that no longer exist.
	GetBooksByIDs(ctx context.Context, ids []int64) ([]models.Book, error)
}

// ServiceConfig holds the service settings taken from config.RecommendConfig.
type ServiceConfig struct {
	// Neighbors is passed to the engine as Params.TopN.
	Neighbors int

	// Timeout bounds one request, including storage reads. Zero disables it.
	Timeout time.Duration

	// BreakerMaxFailures consecutive load failures open the breaker.
	BreakerMaxFailures uint32

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration

	// SnapshotTTL keeps the loaded ratings and averages between requests.
	// Zero loads them on every request.
	SnapshotTTL time.Duration
}

// Response is a page of recommended books.
type Response struct {
	Books   []models.Book
	Outcome Outcome
	Reason  Reason
}

// Service connects the engine to storage for one page of recommendations.
type Service struct {
	engine   *Engine
	snapshot SnapshotSource
	catalog  CatalogSource
	cfg      ServiceConfig
	cb       *gobreaker.CircuitBreaker[interface{}]
	logger   zerolog.Logger

	snapshots *cache.Cache[*Snapshot]
	averages  *cache.Cache[*[]ItemAverage]
}

const (
	breakerName = "recommend-catalog"
	allKey      = "all"
)

// NewService creates a recommendation service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(engine *Engine, snapshot SnapshotSource, catalog CatalogSource, cfg ServiceConfig, logger zerolog.Logger) *Service {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = 10
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	s := &Service{
		engine:   engine,
		snapshot: snapshot,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger.With().Str("component", "recommend-service").Logger(),

		snapshots: cache.New[*Snapshot]("recommend-snapshot", cfg.SnapshotTTL),
		averages:  cache.New[*[]ItemAverage]("recommend-averages", cfg.SnapshotTTL),
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	s.cb = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		// A caller giving up is not a storage failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})
	return s
}

// Recommend returns books [skip, skip+limit) of userID's ranked list.
//
// The engine is asked for skip+limit items so that consecutive pages come
// from the same ranking. ErrUnknownUser passes through unchanged; storage
// failures are wrapped in ErrCatalogUnavailable.
func (s *Service) Recommend(ctx context.Context, userID int64, skip, limit int) (*Response, error) {
	start := time.Now()
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		return &Response{Books: []models.Book{}}, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	resp, result, err := s.recommend(ctx, userID, skip, limit)
	if err != nil {
		if !errors.Is(err, ErrUnknownUser) {
			metrics.RecordRecommendationError(err)
		}
		return nil, err
	}

	metrics.RecordRecommendation(string(resp.Outcome), string(resp.Reason), result.Users, result.Items, time.Since(start))
	s.logger.Debug().
		Int64("user_id", userID).
		Str("outcome", string(resp.Outcome)).
		Str("reason", string(resp.Reason)).
		Int("books", len(resp.Books)).
		Dur("duration", time.Since(start)).
		Msg("recommendations served")
	return resp, nil
}

func (s *Service) recommend(ctx context.Context, userID int64, skip, limit int) (*Response, *Result, error) {
	snap, err := s.snapshots.GetOrLoad(allKey, func() (*Snapshot, error) {
		return castResult[Snapshot](s.execute(func() (interface{}, error) {
			sn, err := s.snapshot.RecommendationSnapshot(ctx)
			if err != nil {
				return nil, err
			}
			return &sn, nil
		}))
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load snapshot: %w", ErrCatalogUnavailable, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	window := rankWindow(skip, limit)
	result, err := s.engine.Recommend(*snap, userID, Params{TopN: s.cfg.Neighbors, Limit: window})
	if err != nil {
		return nil, nil, err
	}

	ranked := result.ItemIDs
	if result.Outcome == OutcomeFallback {
		averages, err := s.averages.GetOrLoad(allKey, func() (*[]ItemAverage, error) {
			return castResult[[]ItemAverage](s.execute(func() (interface{}, error) {
				avg, err := s.catalog.BookAverages(ctx)
				if err != nil {
					return nil, err
				}
				return &avg, nil
			}))
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: load averages: %w", ErrCatalogUnavailable, err)
		}
		ranked = FallbackRanking(*averages, result.Rated, window)
	}

	page := paginate(ranked, skip, limit)
	books := []models.Book{}
	if len(page) > 0 {
		books, err = s.catalog.GetBooksByIDs(ctx, page)
		if err != nil {
			return nil, nil, fmt.Errorf("hydrate recommended books: %w", err)
		}
	}

	return &Response{Books: books, Outcome: result.Outcome, Reason: result.Reason}, result, nil
}

// rankWindow is skip+limit, saturating at math.MaxInt.
func rankWindow(skip, limit int) int {
	if skip > math.MaxInt-limit {
		return math.MaxInt
	}
	return skip + limit
}

// paginate returns ids[skip : skip+limit], clamped to the slice.
func paginate(ids []int64, skip, limit int) []int64 {
	if skip >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit < end-skip {
		end = skip + limit
	}
	return ids[skip:end]
}

// Invalidate drops the cached snapshot and averages. Call it after any
// write to users, books or ratings.
func (s *Service) Invalidate() {
	s.snapshots.Invalidate()
	s.averages.Invalidate()
}

// Cleanup drops expired cache entries. It lets the maintenance supervisor
// treat the service as a services.Cleaner.
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	a, _ := s.snapshots.Cleanup(ctx)
	b, _ := s.averages.Cleanup(ctx)
	return a + b, nil
}

// BreakerState reports the breaker state for health checks.
func (s *Service) BreakerState() string {
	return stateToString(s.cb.State())
}
