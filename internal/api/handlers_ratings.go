// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/models"
	"github.com/tomtom215/bookshelf/internal/websocket"
)

// CreateRating handles POST /api/v1/ratings. The rating belongs to the
// caller; a second rating of the same book is rejected.
// @Summary Rate a book
// @Description One rating per user and book.
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.RatingCreateRequest true "Rating"
// @Success 201 {object} models.APIResponse{data=models.Rating}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 404 {object} models.APIResponse "Book not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/ratings [post]
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	var req models.RatingCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rating, err := h.store.CreateRating(r.Context(), hctx.UserID(), &req)
	if err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	h.invalidateRecommendations()
	h.publish("rating", websocket.ActionCreated, rating.ID, rating.BookID)
	respondData(w, http.StatusCreated, rating)
}

// ListMyRatings handles GET /api/v1/ratings.
// @Summary List own ratings
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000)
// @Success 200 {object} models.APIResponse{data=[]models.Rating}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/ratings [get]
func (h *Handler) ListMyRatings(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	page, err := h.catalogPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	ratings, err := h.store.ListUserRatings(r.Context(), hctx.UserID(), page.Skip, page.Limit)
	if err != nil {
		respondServiceError(w, r, err, "rating")
		return
	}
	respondPage(w, ratings, page, start)
}

// GetRating handles GET /api/v1/ratings/{id}.
// @Summary Get rating
// @Tags Ratings
// @Produce json
// @Param id path int true "Rating ID"
// @Success 200 {object} models.APIResponse{data=models.Rating}
// @Failure 404 {object} models.APIResponse "Rating not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/ratings/{id} [get]
func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	rating, err := h.store.GetRating(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "rating")
		return
	}
	respondData(w, http.StatusOK, rating)
}

// UpdateRating handles PUT /api/v1/ratings/{id}. Only the owner may change
// a rating.
// @Summary Update own rating
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rating ID"
// @Param request body models.RatingUpdateRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.Rating}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Not the owner"
// @Failure 404 {object} models.APIResponse "Rating not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/ratings/{id} [put]
func (h *Handler) UpdateRating(w http.ResponseWriter, r *http.Request) {
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	var req models.RatingUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, ok := h.ownedRating(w, r, hctx, id); !ok {
		return
	}
	if req.IsEmpty() {
		respondServiceError(w, r, ErrNothingToUpdate, "rating")
		return
	}

	rating, err := h.store.UpdateRating(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, err, "rating")
		return
	}
	h.invalidateRecommendations()
	h.publish("rating", websocket.ActionUpdated, rating.ID, rating.BookID)
	respondData(w, http.StatusOK, rating)
}

// DeleteRating handles DELETE /api/v1/ratings/{id}.
// @Summary Delete own rating
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Rating ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Not the owner"
// @Failure 404 {object} models.APIResponse "Rating not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/ratings/{id} [delete]
func (h *Handler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	existing, ok := h.ownedRating(w, r, hctx, id)
	if !ok {
		return
	}

	if err := h.store.DeleteRating(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "rating")
		return
	}
	h.invalidateRecommendations()
	h.publish("rating", websocket.ActionDeleted, id, existing.BookID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedRating loads rating id and checks the caller owns it, writing the
// 404 or 403 itself.
func (h *Handler) ownedRating(w http.ResponseWriter, r *http.Request, hctx *HandlerContext, id int64) (*models.Rating, bool) {
	rating, err := h.store.GetRating(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "rating")
		return nil, false
	}
	if err := hctx.RequireOwner(rating.UserID); err != nil {
		respondServiceError(w, r, err, "rating")
		return nil, false
	}
	return rating, true
}
