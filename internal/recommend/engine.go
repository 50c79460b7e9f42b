// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Engine runs the collaborative-filtering pipeline over a snapshot.
// It is stateless and safe for concurrent use.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates an engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{
		logger: logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommend ranks items for targetUserID.
//
// It returns ErrUnknownUser when the target is neither a known user nor
// present in any observation, and ErrInvalidScore for a corrupt snapshot.
// Every other path ends in a Result: OutcomeCollaborative with ranked
// ItemIDs, or OutcomeFallback with a Reason and no ItemIDs.
func (e *Engine) Recommend(snapshot Snapshot, targetUserID int64, params Params) (*Result, error) {
	m, err := BuildMatrix(snapshot)
	if err != nil {
		return nil, err
	}

	target, ok := m.Users.Position(targetUserID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, targetUserID)
	}

	users, items := m.Dims()
	res := &Result{Users: users, Items: items}

	if m.Empty() || m.RatedCount(target) == 0 {
		return e.fallback(res, ReasonNoObservations, targetUserID), nil
	}
	res.Rated = m.RatedItems(target)

	neighbors := SelectNeighbors(m.Centered(), target, params.TopN)
	res.Neighbors = len(neighbors)
	if len(neighbors) == 0 {
		return e.fallback(res, ReasonNoNeighbors, targetUserID), nil
	}

	ranked := RankCandidates(m.Raw(), target, neighbors, params.Limit)
	if len(ranked) == 0 {
		return e.fallback(res, ReasonNoPositiveCandidates, targetUserID), nil
	}

	res.Outcome = OutcomeCollaborative
	res.Reason = ReasonCollaborative
	res.ItemIDs = make([]int64, len(ranked))
	for i, it := range ranked {
		res.ItemIDs[i] = m.Items.ID(it.Col)
	}

	e.logger.Debug().
		Int64("user_id", targetUserID).
		Int("users", users).
		Int("items", items).
		Int("neighbors", res.Neighbors).
		Int("candidates", len(res.ItemIDs)).
		Msg("collaborative recommendation")
	return res, nil
}

func (e *Engine) fallback(res *Result, reason Reason, userID int64) *Result {
	res.Outcome = OutcomeFallback
	res.Reason = reason
	e.logger.Debug().
		Int64("user_id", userID).
		Str("reason", string(reason)).
		Int("users", res.Users).
		Int("items", res.Items).
		Msg("recommendation falls back to top-rated books")
	return res
}
