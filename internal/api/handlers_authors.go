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

// ListAuthors handles GET /api/v1/authors.
// @Summary List authors
// @Tags Authors
// @Produce json
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000)
// @Success 200 {object} models.APIResponse{data=[]models.Author}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/authors [get]
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page, err := h.catalogPage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	authors, err := h.store.ListAuthors(r.Context(), page.Skip, page.Limit)
	if err != nil {
		respondServiceError(w, r, err, "author")
		return
	}
	respondPage(w, authors, page, start)
}

// GetAuthor handles GET /api/v1/authors/{id}.
// @Summary Get author
// @Tags Authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} models.APIResponse{data=models.Author}
// @Failure 404 {object} models.APIResponse "Author not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/authors/{id} [get]
func (h *Handler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	author, err := h.store.GetAuthor(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "author")
		return
	}
	h.publish("author", websocket.ActionUpdated, author.ID, 0)
	respondData(w, http.StatusOK, author)
}

// CreateAuthor handles POST /api/v1/authors.
// @Summary Create author
// @Description Requires an authenticated access. Duplicate names are rejected.
// @Tags Authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AuthorCreateRequest true "Author"
// @Success 201 {object} models.APIResponse{data=models.Author}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/authors [post]
func (h *Handler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req models.AuthorCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	author, err := h.store.CreateAuthor(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "author")
		return
	}
	h.publish("author", websocket.ActionCreated, author.ID, 0)
	logging.Ctx(r.Context()).Info().Int64("author_id", author.ID).Msg("Author created")
	respondData(w, http.StatusCreated, author)
}

// UpdateAuthor handles PUT /api/v1/authors/{id}.
// @Summary Update author
// @Tags Authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param request body models.AuthorUpdateRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.Author}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Author not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/authors/{id} [put]
func (h *Handler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	var req models.AuthorUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.IsEmpty() {
		respondServiceError(w, r, ErrNothingToUpdate, "author")
		return
	}

	author, err := h.store.UpdateAuthor(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, err, "author")
		return
	}
	respondData(w, http.StatusOK, author)
}

// DeleteAuthor handles DELETE /api/v1/authors/{id}. The author's books go
// with it.
// @Summary Delete author
// @Tags Authors
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Author not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/authors/{id} [delete]
func (h *Handler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteAuthor(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "author")
		return
	}
	h.invalidateRecommendations()
	h.publish("author", websocket.ActionDeleted, id, 0)
	logging.Ctx(r.Context()).Info().Int64("author_id", id).Msg("Author deleted")
	w.WriteHeader(http.StatusNoContent)
}
