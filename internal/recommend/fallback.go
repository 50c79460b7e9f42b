// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import "sort"

// FallbackRanking returns up to k item ids ordered by average rating,
// highest first. Equal averages put the higher id (the newer book) first.
// Items in exclude are skipped.
func FallbackRanking(items []ItemAverage, exclude []int64, k int) []int64 {
	if k <= 0 || len(items) == 0 {
		return nil
	}

	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	pool := make([]ItemAverage, 0, len(items))
	for _, it := range items {
		if _, ok := skip[it.ItemID]; !ok {
			pool = append(pool, it)
		}
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Average != pool[j].Average {
			return pool[i].Average > pool[j].Average
		}
		return pool[i].ItemID > pool[j].ItemID
	})

	if len(pool) > k {
		pool = pool[:k]
	}
	ids := make([]int64, len(pool))
	for i, it := range pool {
		ids[i] = it.ItemID
	}
	return ids
}
