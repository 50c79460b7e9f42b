// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package services adapts Bookshelf components to suture.Service.
//
// Each wrapper implements Serve(ctx) error and String() string. Serve
// blocks until ctx is canceled and returns ctx.Err() on a clean stop;
// any other return value is treated by suture as a crash.
package services
