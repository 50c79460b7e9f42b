// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint returns.
//
// Status is "success" with Data set, or "error" with Error set.
//
//	{
//	  "status": "success",
//	  "data": [{"id": 1, "title": "Dune", ...}],
//	  "metadata": {"timestamp": "2026-01-10T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and, for recommendation responses, how the
// list was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`

	// Skip and Limit echo the pagination window of list endpoints.
	Skip  *int `json:"skip,omitempty"`
	Limit *int `json:"limit,omitempty"`

	// Outcome is "collaborative" or "fallback".
	Outcome string `json:"outcome,omitempty"`
	// Reason explains a fallback outcome.
	Reason string `json:"reason,omitempty"`
}

// APIError is the error body.
//
// Codes in use:
//   - VALIDATION_ERROR: invalid body or query parameters (400)
//   - BAD_REQUEST: request rejected by a business rule (400)
//   - AUTH_REQUIRED / INVALID_CREDENTIALS / INVALID_TOKEN (401)
//   - FORBIDDEN (403)
//   - NOT_FOUND / USER_NOT_FOUND (404)
//   - RATE_LIMITED / ACCOUNT_LOCKED (429)
//   - DATABASE_ERROR / INTERNAL_ERROR (500)
//   - SERVICE_UNAVAILABLE (503)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	// Status is "healthy" when the database answers, else "unhealthy".
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	RecommendBreaker  string  `json:"recommend_breaker,omitempty"`
	Uptime            float64 `json:"uptime_seconds"`
}
