// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/bookshelf/internal/audit"
)

// ListAuditEvents handles GET /api/v1/admin/audit-events
//
// Query parameters:
//   - type: repeatable or comma separated event types (auth.failure, ...)
//   - outcome: success or failure
//   - user_id: actor id
//   - since: RFC3339 timestamp
//   - skip, limit: pagination
// @Summary List audit events
// @Description Admin only.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "Event types, comma separated"
// @Param outcome query string false "success or failure"
// @Param user_id query int false "Actor ID"
// @Param since query string false "RFC3339 timestamp"
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000)
// @Success 200 {object} models.APIResponse{data=[]audit.Event}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 503 {object} models.APIResponse "Audit logging disabled"
// @Router /api/v1/admin/audit-events [get]
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.auditLog == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Audit logging is disabled", nil)
		return
	}

	page, err := h.catalogPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	filter, err := parseAuditFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	filter.Offset = page.Skip
	filter.Limit = page.Limit

	events, err := h.auditLog.Query(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, "audit event")
		return
	}
	respondPage(w, events, page, start)
}

func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	var filter audit.QueryFilter
	q := r.URL.Query()

	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			t := audit.EventType(strings.TrimSpace(part))
			if t == "" {
				continue
			}
			if !audit.ValidEventType(t) {
				return filter, fmt.Errorf("unknown event type %q", t)
			}
			filter.Types = append(filter.Types, t)
		}
	}

	switch o := audit.Outcome(strings.TrimSpace(q.Get("outcome"))); o {
	case "":
	case audit.OutcomeSuccess, audit.OutcomeFailure:
		filter.Outcome = o
	default:
		return filter, fmt.Errorf("outcome must be %q or %q", audit.OutcomeSuccess, audit.OutcomeFailure)
	}

	userID, err := queryOptionalInt64(r, "user_id", 1)
	if err != nil {
		return filter, err
	}
	filter.ActorID = userID

	if since := strings.TrimSpace(q.Get("since")); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, fmt.Errorf("since must be an RFC3339 timestamp")
		}
		filter.Since = &ts
	}
	return filter, nil
}
