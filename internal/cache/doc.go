// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package cache provides a small generic TTL cache with explicit invalidation.

The recommendation service uses it to keep the ratings snapshot and the
per-book averages between requests. Writes that change either (a rating,
a book, a new account) call Invalidate, so a reader always sees their own
rating reflected in the next recommendation.

# Invalidation and in-flight loads

GetOrLoad records a generation number before calling the loader. If
Invalidate runs while the loader is working, the result is returned to
the caller but never stored:

	snap, err := snapshots.GetOrLoad("all", func() (*Snapshot, error) {
	    return db.RecommendationSnapshot(ctx)
	})

# Expiry

Expired entries are dropped lazily by Get and in bulk by Cleanup. There is
no background goroutine; the supervisor's maintenance layer calls Cleanup
on an interval.

# Metrics

Each cache is labelled by name in bookshelf_cache_hits_total,
bookshelf_cache_misses_total, bookshelf_cache_invalidations_total and
bookshelf_cache_entries.
*/
package cache
