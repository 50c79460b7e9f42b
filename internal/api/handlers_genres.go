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
	"github.com/tomtom215/bookshelf/internal/websocket"
)

// ListGenres handles GET /api/v1/genres.
// @Summary List genres
// @Tags Genres
// @Produce json
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000)
// @Success 200 {object} models.APIResponse{data=[]models.Genre}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/genres [get]
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page, err := h.catalogPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	genres, err := h.store.ListGenres(r.Context(), page.Skip, page.Limit)
	if err != nil {
		respondServiceError(w, r, err, "genre")
		return
	}
	respondPage(w, genres, page, start)
}

// GetGenre handles GET /api/v1/genres/{id}.
// @Summary Get genre
// @Tags Genres
// @Produce json
// @Param id path int true "Genre ID"
// @Success 200 {object} models.APIResponse{data=models.Genre}
// @Failure 404 {object} models.APIResponse "Genre not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/genres/{id} [get]
func (h *Handler) GetGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	genre, err := h.store.GetGenre(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "genre")
		return
	}
	h.publish("genre", websocket.ActionUpdated, genre.ID, 0)
	respondData(w, http.StatusOK, genre)
}

// CreateGenre handles POST /api/v1/genres.
// @Summary Create genre
// @Description Requires admin access. Duplicate names are rejected.
// @Tags Genres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenreRequest true "Genre"
// @Success 201 {object} models.APIResponse{data=models.Genre}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/genres [post]
func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var req models.GenreRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	genre, err := h.store.CreateGenre(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err, "genre")
		return
	}
	h.publish("genre", websocket.ActionCreated, genre.ID, 0)
	logging.Ctx(r.Context()).Info().Int64("genre_id", genre.ID).Msg("Genre created")
	respondData(w, http.StatusCreated, genre)
}

// UpdateGenre handles PUT /api/v1/genres/{id}. The name is the only field,
// so the body is validated like a create.
// @Summary Update genre
// @Tags Genres
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Genre ID"
// @Param request body models.GenreRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.Genre}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Genre not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/genres/{id} [put]
func (h *Handler) UpdateGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	var req models.GenreRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	genre, err := h.store.UpdateGenre(r.Context(), id, req.Name)
	if err != nil {
		respondServiceError(w, r, err, "genre")
		return
	}
	respondData(w, http.StatusOK, genre)
}

// DeleteGenre handles DELETE /api/v1/genres/{id}.
// @Summary Delete genre
// @Tags Genres
// @Produce json
// @Security BearerAuth
// @Param id path int true "Genre ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Genre not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/genres/{id} [delete]
func (h *Handler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteGenre(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "genre")
		return
	}
	h.publish("genre", websocket.ActionDeleted, id, 0)
	w.WriteHeader(http.StatusNoContent)
}
