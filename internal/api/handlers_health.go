// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
)

// Version is reported by /health. It is set at build time with
// -ldflags "-X github.com/tomtom215/bookshelf/internal/api.Version=...".
var Version = "dev"

const healthPingTimeout = 2 * time.Second

// Health handles health check requests
//
// Returns 200 with status "healthy" when the database answers a ping, and
// 503 with status "unhealthy" otherwise.
// @Summary Health check
// @Description Pings the database.
// @Tags Core
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse "Database unavailable"
// @Router /api/v1/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	dbConnected := false
	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check: database ping failed")
		} else {
			dbConnected = true
		}
	}

	uptime := time.Since(h.startTime).Seconds()
	metrics.AppUptime.Set(uptime)

	health := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: dbConnected,
		Uptime:            uptime,
	}
	if h.recommender != nil {
		health.RecommendBreaker = h.recommender.BreakerState()
	}

	status := http.StatusOK
	if !dbConnected {
		health.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
