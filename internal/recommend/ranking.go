// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// RankCandidates aggregates neighbor ratings into candidate scores for the
// items targetRow has not rated.
//
// Only neighbors with similarity > 0 contribute; each adds rating*similarity
// to every item it rated that the target did not. Items are then sorted by
// score, descending with ties in column order, cut to k, and any item whose
// score is not strictly positive is dropped. An empty result means the
// caller should use the fallback.
func RankCandidates(raw *mat.Dense, targetRow int, neighbors []Neighbor, k int) []ScoredItem {
	if raw == nil || k <= 0 {
		return nil
	}
	_, cols := raw.Dims()
	target := raw.RawRowView(targetRow)

	scores := make([]float64, cols)
	for _, n := range neighbors {
		if n.Similarity <= 0 {
			continue
		}
		for c, rating := range raw.RawRowView(n.Row) {
			if rating != Unrated && target[c] == Unrated {
				scores[c] += rating * n.Similarity
			}
		}
	}

	ranked := make([]ScoredItem, cols)
	for c, s := range scores {
		ranked[c] = ScoredItem{Col: c, Score: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	out := ranked[:0]
	for _, it := range ranked {
		if it.Score > 0 {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
