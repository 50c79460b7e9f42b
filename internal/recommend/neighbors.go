// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SelectNeighbors scores every row of centered except targetRow against the
// target and returns the topN most similar, descending. Equal similarities
// keep row order. A nil matrix or topN <= 0 yields no neighbors.
func SelectNeighbors(centered *mat.Dense, targetRow, topN int) []Neighbor {
	if centered == nil || topN <= 0 {
		return nil
	}
	rows, _ := centered.Dims()
	target := centered.RawRowView(targetRow)

	scored := make([]Neighbor, 0, rows-1)
	for r := 0; r < rows; r++ {
		if r == targetRow {
			continue
		}
		scored = append(scored, Neighbor{
			Row:        r,
			Similarity: CosineSimilarity(target, centered.RawRowView(r)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}
