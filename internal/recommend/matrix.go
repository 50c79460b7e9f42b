// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Index maps ids to dense positions 0..N-1 and back.
type Index struct {
	pos map[int64]int
	ids []int64
}

func newIndex(capacity int) *Index {
	return &Index{
		pos: make(map[int64]int, capacity),
		ids: make([]int64, 0, capacity),
	}
}

// add registers id if it is new and returns its position.
func (ix *Index) add(id int64) int {
	if p, ok := ix.pos[id]; ok {
		return p
	}
	p := len(ix.ids)
	ix.pos[id] = p
	ix.ids = append(ix.ids, id)
	return p
}

// Position returns the dense position of id.
func (ix *Index) Position(id int64) (int, bool) {
	p, ok := ix.pos[id]
	return p, ok
}

// ID returns the id at position p.
func (ix *Index) ID(p int) int64 {
	return ix.ids[p]
}

// Len returns the number of indexed ids.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// RatingMatrix is the dense users x items matrix built from a snapshot.
type RatingMatrix struct {
	Users *Index
	Items *Index

	// raw is nil when either dimension is zero, since gonum rejects
	// zero-sized matrices.
	raw *mat.Dense

	observations int
}

// BuildMatrix indexes the known users and items in the given order, then
// any ids that only appear in observations in order of first appearance.
// Later observations of the same (user, item) pair overwrite earlier ones.
func BuildMatrix(s Snapshot) (*RatingMatrix, error) {
	users := newIndex(len(s.UserIDs))
	items := newIndex(len(s.ItemIDs))
	for _, id := range s.UserIDs {
		users.add(id)
	}
	for _, id := range s.ItemIDs {
		items.add(id)
	}
	for _, o := range s.Observations {
		if o.Score < MinScore {
			return nil, fmt.Errorf("%w: user %d item %d score %v", ErrInvalidScore, o.UserID, o.ItemID, o.Score)
		}
		users.add(o.UserID)
		items.add(o.ItemID)
	}

	m := &RatingMatrix{Users: users, Items: items, observations: len(s.Observations)}
	if users.Len() == 0 || items.Len() == 0 {
		return m, nil
	}

	m.raw = mat.NewDense(users.Len(), items.Len(), nil)
	for _, o := range s.Observations {
		r, _ := users.Position(o.UserID)
		c, _ := items.Position(o.ItemID)
		m.raw.Set(r, c, o.Score)
	}
	return m, nil
}

// Dims returns (users, items).
func (m *RatingMatrix) Dims() (int, int) {
	return m.Users.Len(), m.Items.Len()
}

// Empty reports whether the snapshot had no observations.
func (m *RatingMatrix) Empty() bool {
	return m.observations == 0
}

// Raw returns the uncentered matrix, or nil when a dimension is zero.
// Callers must not modify it.
func (m *RatingMatrix) Raw() *mat.Dense {
	return m.raw
}

// At returns the raw score at (row, col), or Unrated.
func (m *RatingMatrix) At(row, col int) float64 {
	if m.raw == nil {
		return Unrated
	}
	return m.raw.At(row, col)
}

// RatedCount returns the number of rated cells in a row.
func (m *RatingMatrix) RatedCount(row int) int {
	if m.raw == nil {
		return 0
	}
	n := 0
	for _, v := range m.raw.RawRowView(row) {
		if v != Unrated {
			n++
		}
	}
	return n
}

// RatedItems returns the ids of the items rated in a row, in column order.
func (m *RatingMatrix) RatedItems(row int) []int64 {
	if m.raw == nil {
		return nil
	}
	var ids []int64
	for c, v := range m.raw.RawRowView(row) {
		if v != Unrated {
			ids = append(ids, m.Items.ID(c))
		}
	}
	return ids
}

// RowMeans returns each user's mean over rated cells only, or 0 for a user
// with no ratings.
func (m *RatingMatrix) RowMeans() []float64 {
	rows, _ := m.Dims()
	means := make([]float64, rows)
	if m.raw == nil {
		return means
	}
	for r := range means {
		row := m.raw.RawRowView(r)
		n := 0
		for _, v := range row {
			if v != Unrated {
				n++
			}
		}
		if n > 0 {
			means[r] = floats.Sum(row) / float64(n)
		}
	}
	return means
}

// Centered returns a copy of the matrix with each row's mean subtracted
// from every cell of that row, rated or not. Unrated cells end up at -mean.
func (m *RatingMatrix) Centered() *mat.Dense {
	if m.raw == nil {
		return nil
	}
	c := mat.DenseCopyOf(m.raw)
	for r, mean := range m.RowMeans() {
		floats.AddConst(-mean, c.RawRowView(r))
	}
	return c
}
