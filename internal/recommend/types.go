// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import "errors"

// Unrated is the matrix value for a missing rating. Valid scores are >= 1.
const Unrated = 0.0

// MinScore is the smallest score BuildMatrix accepts.
const MinScore = 1.0

var (
	// ErrUnknownUser is returned when the target user is not in the snapshot.
	ErrUnknownUser = errors.New("recommend: unknown user")

	// ErrInvalidScore is returned when an observation score is below MinScore.
	ErrInvalidScore = errors.New("recommend: score must be at least 1")

	// ErrCatalogUnavailable is returned when the snapshot or book averages
	// cannot be loaded, including while the circuit breaker is open.
	ErrCatalogUnavailable = errors.New("recommend: catalog unavailable")
)

// Observation is one recorded (user, book, score) rating.
type Observation struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
}

// Snapshot is the input of one engine invocation. UserIDs and ItemIDs may
// contain ids without any observation; they still get a matrix row or column.
type Snapshot struct {
	Observations []Observation
	UserIDs      []int64
	ItemIDs      []int64
}

// Params are the per-call tuning knobs.
type Params struct {
	// TopN is the neighborhood size.
	TopN int

	// Limit is the maximum number of ranked items returned.
	Limit int
}

// Outcome is the terminal state of an engine run.
type Outcome string

const (
	OutcomeCollaborative Outcome = "collaborative"
	OutcomeFallback      Outcome = "fallback"
)

// Reason explains an Outcome.
type Reason string

const (
	// ReasonCollaborative accompanies OutcomeCollaborative.
	ReasonCollaborative Reason = "collaborative"

	// ReasonNoObservations: the snapshot or the target row has no ratings.
	ReasonNoObservations Reason = "no_observations"

	// ReasonNoNeighbors: there is no other user to compare against.
	ReasonNoNeighbors Reason = "no_neighbors"

	// ReasonNoPositiveCandidates: neighbors exist but no unrated item
	// accumulated a positive score.
	ReasonNoPositiveCandidates Reason = "no_positive_candidates"
)

// Neighbor is a user row and its similarity to the target row.
type Neighbor struct {
	Row        int
	Similarity float64
}

// ScoredItem is a matrix column and its aggregated candidate score.
type ScoredItem struct {
	Col   int
	Score float64
}

// ItemAverage is a book's global average rating, used by the fallback.
type ItemAverage struct {
	ItemID  int64   `json:"item_id"`
	Average float64 `json:"average"`
}

// Result is the engine output.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason"`

	// ItemIDs is the ranked list. Empty on the fallback outcome.
	ItemIDs []int64 `json:"item_ids"`

	// Rated lists the items the target already rated. The fallback
	// excludes them.
	Rated []int64 `json:"rated,omitempty"`

	// Neighbors is the size of the selected neighborhood.
	Neighbors int `json:"neighbors"`

	// Users and Items are the matrix dimensions.
	Users int `json:"users"`
	Items int `json:"items"`
}
