// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestEngine() *Engine {
	return NewEngine(zerolog.Nop())
}

func rateRange(user int64, from, to int64, score float64) []Observation {
	var obs []Observation
	for item := from; item <= to; item++ {
		obs = append(obs, Observation{UserID: user, ItemID: item, Score: score})
	}
	return obs
}

func ids(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// threeUserSnapshot: U1 rates I1..I8 with 5, U2 rates I6..I10 with 5,
// U3 rates I1..I5 with 3.
func threeUserSnapshot() Snapshot {
	var obs []Observation
	obs = append(obs, rateRange(1, 1, 8, 5)...)
	obs = append(obs, rateRange(2, 6, 10, 5)...)
	obs = append(obs, rateRange(3, 1, 5, 3)...)
	return Snapshot{Observations: obs, UserIDs: []int64{1, 2, 3}, ItemIDs: ids(1, 10)}
}

func TestEngine_ThreeUserScenario(t *testing.T) {
	res, err := newTestEngine().Recommend(threeUserSnapshot(), 3, Params{TopN: 10, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if res.Outcome != OutcomeCollaborative {
		t.Fatalf("Outcome = %s (%s), want collaborative", res.Outcome, res.Reason)
	}
	want := []int64{6, 7, 8}
	if !reflect.DeepEqual(res.ItemIDs, want) {
		t.Errorf("ItemIDs = %v, want %v", res.ItemIDs, want)
	}
	if res.Neighbors != 2 {
		t.Errorf("Neighbors = %d, want 2", res.Neighbors)
	}
	if res.Users != 3 || res.Items != 10 {
		t.Errorf("dims = (%d, %d), want (3, 10)", res.Users, res.Items)
	}
}

func TestEngine_NeverRecommendsRatedItems(t *testing.T) {
	snap := threeUserSnapshot()
	for _, user := range []int64{1, 2, 3} {
		res, err := newTestEngine().Recommend(snap, user, Params{TopN: 10, Limit: 10})
		if err != nil {
			t.Fatalf("user %d: Recommend() error = %v", user, err)
		}
		if res.Outcome != OutcomeCollaborative {
			continue
		}
		rated := map[int64]bool{}
		for _, o := range snap.Observations {
			if o.UserID == user {
				rated[o.ItemID] = true
			}
		}
		for _, id := range res.ItemIDs {
			if rated[id] {
				t.Errorf("user %d: recommended already rated item %d", user, id)
			}
		}
	}
}

func TestEngine_FallbackStates(t *testing.T) {
	tests := []struct {
		name   string
		snap   Snapshot
		target int64
		params Params
		reason Reason
	}{
		{
			name:   "no observations at all",
			snap:   Snapshot{UserIDs: []int64{1, 2}, ItemIDs: ids(1, 5)},
			target: 1,
			params: Params{TopN: 10, Limit: 5},
			reason: ReasonNoObservations,
		},
		{
			name: "target has no ratings",
			snap: Snapshot{
				UserIDs:      []int64{1, 2},
				ItemIDs:      ids(1, 5),
				Observations: rateRange(2, 1, 5, 8),
			},
			target: 1,
			params: Params{TopN: 10, Limit: 5},
			reason: ReasonNoObservations,
		},
		{
			name: "single user with ten ratings",
			snap: Snapshot{
				UserIDs:      []int64{1},
				ItemIDs:      ids(1, 12),
				Observations: rateRange(1, 1, 10, 6),
			},
			target: 1,
			params: Params{TopN: 10, Limit: 5},
			reason: ReasonNoNeighbors,
		},
		{
			name:   "zero neighborhood size",
			snap:   threeUserSnapshot(),
			target: 3,
			params: Params{TopN: 0, Limit: 5},
			reason: ReasonNoNeighbors,
		},
		{
			name: "only anti-correlated neighbor",
			snap: Snapshot{
				UserIDs: []int64{1, 2},
				ItemIDs: ids(1, 3),
				Observations: []Observation{
					{UserID: 1, ItemID: 1, Score: 5},
					{UserID: 1, ItemID: 2, Score: 1},
					{UserID: 2, ItemID: 1, Score: 1},
					{UserID: 2, ItemID: 2, Score: 5},
					{UserID: 2, ItemID: 3, Score: 3},
				},
			},
			target: 1,
			params: Params{TopN: 10, Limit: 5},
			reason: ReasonNoPositiveCandidates,
		},
		{
			name: "neighbor with flat ratings has zero similarity",
			snap: Snapshot{
				UserIDs: []int64{1, 2},
				ItemIDs: ids(1, 10),
				Observations: append(rateRange(1, 1, 10, 1),
					Observation{UserID: 2, ItemID: 1, Score: 3}),
			},
			target: 2,
			params: Params{TopN: 10, Limit: 10},
			reason: ReasonNoPositiveCandidates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestEngine().Recommend(tt.snap, tt.target, tt.params)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if res.Outcome != OutcomeFallback {
				t.Fatalf("Outcome = %s, want fallback", res.Outcome)
			}
			if res.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", res.Reason, tt.reason)
			}
			if len(res.ItemIDs) != 0 {
				t.Errorf("fallback ItemIDs = %v, want empty", res.ItemIDs)
			}
		})
	}
}

func TestEngine_FallbackReportsRatedItems(t *testing.T) {
	snap := Snapshot{
		UserIDs: []int64{1, 2},
		ItemIDs: ids(1, 10),
		Observations: append(rateRange(1, 1, 10, 1),
			Observation{UserID: 2, ItemID: 1, Score: 3}),
	}
	res, err := newTestEngine().Recommend(snap, 2, Params{TopN: 10, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(res.Rated, []int64{1}) {
		t.Errorf("Rated = %v, want [1]", res.Rated)
	}
}

func TestEngine_LimitReturnsTopScores(t *testing.T) {
	// Target rates items 1 and 2; the neighbor agrees on those and rates
	// items 3..14 with 9,8,7,...,1,1,1,1.
	obs := []Observation{
		{UserID: 1, ItemID: 1, Score: 5},
		{UserID: 1, ItemID: 2, Score: 1},
		{UserID: 2, ItemID: 1, Score: 5},
		{UserID: 2, ItemID: 2, Score: 1},
	}
	scores := []float64{9, 8, 7, 6, 5, 4, 3, 2, 1, 1, 1, 1}
	for i, s := range scores {
		obs = append(obs, Observation{UserID: 2, ItemID: int64(3 + i), Score: s})
	}
	snap := Snapshot{Observations: obs, UserIDs: []int64{1, 2}, ItemIDs: ids(1, 14)}

	full, err := newTestEngine().Recommend(snap, 1, Params{TopN: 10, Limit: 20})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if full.Outcome != OutcomeCollaborative || len(full.ItemIDs) != 12 {
		t.Fatalf("full run: outcome %s, %d items, want collaborative with 12", full.Outcome, len(full.ItemIDs))
	}

	res, err := newTestEngine().Recommend(snap, 1, Params{TopN: 10, Limit: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	want := []int64{3, 4, 5, 6, 7}
	if !reflect.DeepEqual(res.ItemIDs, want) {
		t.Errorf("ItemIDs = %v, want %v", res.ItemIDs, want)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine()
	snap := threeUserSnapshot()
	first, err := e.Recommend(snap, 3, Params{TopN: 2, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := e.Recommend(snap, 3, Params{TopN: 2, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := newTestEngine()
	snap := threeUserSnapshot()
	want, err := e.Recommend(snap, 3, Params{TopN: 10, Limit: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Recommend(snap, 3, Params{TopN: 10, Limit: 10})
			if err != nil || !reflect.DeepEqual(got.ItemIDs, want.ItemIDs) {
				errs <- "concurrent result differs"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine()

	_, err := e.Recommend(threeUserSnapshot(), 99, Params{TopN: 10, Limit: 10})
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user: error = %v, want ErrUnknownUser", err)
	}

	bad := Snapshot{UserIDs: []int64{1}, Observations: []Observation{{UserID: 1, ItemID: 1, Score: 0}}}
	_, err = e.Recommend(bad, 1, Params{TopN: 10, Limit: 10})
	if !errors.Is(err, ErrInvalidScore) {
		t.Errorf("zero score: error = %v, want ErrInvalidScore", err)
	}
}
