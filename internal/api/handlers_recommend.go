// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/models"
)

// Recommendations handles GET /api/v1/recommendations
// Returns a page of books for the caller, with metadata.outcome set to
// "collaborative" or "fallback" and metadata.reason explaining it.
// @Summary Recommend books
// @Description User-based collaborative filtering. metadata.outcome is collaborative or fallback; metadata.reason explains a fallback.
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(100)
// @Success 200 {object} models.APIResponse{data=[]models.Book}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 404 {object} models.APIResponse "User not found"
// @Failure 503 {object} models.APIResponse "Recommendations unavailable"
// @Router /api/v1/recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	page, err := h.recommendPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	resp, err := h.recommender.Recommend(r.Context(), hctx.UserID(), page.Skip, page.Limit)
	if err != nil {
		respondServiceError(w, r, err, "user")
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("outcome", string(resp.Outcome)).
		Str("reason", string(resp.Reason)).
		Int("count", len(resp.Books)).
		Msg("Recommendations served")

	books := resp.Books
	if books == nil {
		books = []models.Book{}
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   books,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Skip:        &page.Skip,
			Limit:       &page.Limit,
			Outcome:     string(resp.Outcome),
			Reason:      string(resp.Reason),
		},
	})
}
