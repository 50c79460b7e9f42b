// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"errors"
	"testing"
)

func TestBuildMatrix(t *testing.T) {
	snap := Snapshot{
		UserIDs: []int64{10, 20, 30},
		ItemIDs: []int64{100, 200},
		Observations: []Observation{
			{UserID: 10, ItemID: 100, Score: 4},
			{UserID: 20, ItemID: 200, Score: 7},
			{UserID: 10, ItemID: 100, Score: 9}, // last write wins
		},
	}

	m, err := BuildMatrix(snap)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}

	users, items := m.Dims()
	if users != 3 || items != 2 {
		t.Fatalf("Dims() = (%d, %d), want (3, 2)", users, items)
	}
	if got := m.At(0, 0); got != 9 {
		t.Errorf("At(user 10, item 100) = %v, want 9", got)
	}
	if got := m.At(1, 1); got != 7 {
		t.Errorf("At(user 20, item 200) = %v, want 7", got)
	}
	if got := m.RatedCount(2); got != 0 {
		t.Errorf("RatedCount(user 30) = %d, want 0", got)
	}
	if p, ok := m.Users.Position(30); !ok || p != 2 {
		t.Errorf("Users.Position(30) = (%d, %v), want (2, true)", p, ok)
	}
	if id := m.Items.ID(1); id != 200 {
		t.Errorf("Items.ID(1) = %d, want 200", id)
	}
}

func TestBuildMatrix_IndexesUnlistedIDs(t *testing.T) {
	snap := Snapshot{
		UserIDs:      []int64{1},
		ItemIDs:      []int64{5},
		Observations: []Observation{{UserID: 2, ItemID: 6, Score: 3}},
	}
	m, err := BuildMatrix(snap)
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	if p, ok := m.Users.Position(2); !ok || p != 1 {
		t.Errorf("Users.Position(2) = (%d, %v), want (1, true)", p, ok)
	}
	if p, ok := m.Items.Position(6); !ok || p != 1 {
		t.Errorf("Items.Position(6) = (%d, %v), want (1, true)", p, ok)
	}
}

func TestBuildMatrix_Empty(t *testing.T) {
	m, err := BuildMatrix(Snapshot{UserIDs: []int64{1, 2}, ItemIDs: []int64{1, 2, 3}})
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	if !m.Empty() {
		t.Error("Empty() = false, want true")
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			if v := m.At(r, c); v != Unrated {
				t.Errorf("At(%d, %d) = %v, want %v", r, c, v, Unrated)
			}
		}
	}

	none, err := BuildMatrix(Snapshot{})
	if err != nil {
		t.Fatalf("BuildMatrix(empty) error = %v", err)
	}
	if none.Raw() != nil || none.Centered() != nil {
		t.Error("zero-dimension matrix should have nil Raw and Centered")
	}
	if len(none.RowMeans()) != 0 {
		t.Errorf("RowMeans() = %v, want empty", none.RowMeans())
	}
}

func TestBuildMatrix_RejectsScoreBelowOne(t *testing.T) {
	for _, score := range []float64{0, -2, 0.5} {
		_, err := BuildMatrix(Snapshot{Observations: []Observation{{UserID: 1, ItemID: 1, Score: score}}})
		if !errors.Is(err, ErrInvalidScore) {
			t.Errorf("score %v: error = %v, want ErrInvalidScore", score, err)
		}
	}
}

func TestRowMeansAndCentered(t *testing.T) {
	// Row 0 rates two items, row 1 rates nothing.
	m, err := BuildMatrix(Snapshot{
		UserIDs: []int64{1, 2},
		ItemIDs: []int64{1, 2, 3},
		Observations: []Observation{
			{UserID: 1, ItemID: 1, Score: 4},
			{UserID: 1, ItemID: 3, Score: 2},
		},
	})
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}

	means := m.RowMeans()
	if !approxEqual(means[0], 3) || means[1] != 0 {
		t.Fatalf("RowMeans() = %v, want [3 0]", means)
	}

	c := m.Centered()
	want := [][]float64{
		{1, -3, -1}, // unrated cell becomes -mean
		{0, 0, 0},
	}
	for r := range want {
		for col, w := range want[r] {
			if got := c.At(r, col); !approxEqual(got, w) {
				t.Errorf("Centered().At(%d, %d) = %v, want %v", r, col, got, w)
			}
		}
	}

	if m.At(0, 1) != Unrated {
		t.Error("Centered() must not modify the raw matrix")
	}
}

func TestRatedItems(t *testing.T) {
	m, err := BuildMatrix(Snapshot{
		ItemIDs: []int64{7, 8, 9},
		Observations: []Observation{
			{UserID: 1, ItemID: 9, Score: 2},
			{UserID: 1, ItemID: 7, Score: 5},
		},
	})
	if err != nil {
		t.Fatalf("BuildMatrix() error = %v", err)
	}
	got := m.RatedItems(0)
	if len(got) != 2 || got[0] != 7 || got[1] != 9 {
		t.Errorf("RatedItems(0) = %v, want [7 9]", got)
	}
}
