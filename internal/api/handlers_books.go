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

// Publication year bounds for books and the year filters.
const (
	minYear = 1000
	maxYear = 2100
)

// ListBooks handles GET /api/v1/books.
//
// Query parameters: author_id, genre_id, year_from, year_to, skip, limit.
// @Summary List books
// @Description Filters combine with AND.
// @Tags Books
// @Produce json
// @Param author_id query int false "Author ID"
// @Param genre_id query int false "Genre ID"
// @Param year_from query int false "Earliest publication year" minimum(1000)
// @Param year_to query int false "Latest publication year" maximum(2100)
// @Param skip query int false "Items to skip" minimum(0)
// @Param limit query int false "Page size" minimum(1) maximum(1000)
// @Success 200 {object} models.APIResponse{data=[]models.Book}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := h.parseBookFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	books, err := h.store.ListBooks(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	respondPage(w, books, pagination{Skip: filter.Skip, Limit: filter.Limit}, start)
}

func (h *Handler) parseBookFilter(r *http.Request) (models.BookFilter, error) {
	var filter models.BookFilter

	page, err := h.catalogPage(r)
	if err != nil {
		return filter, err
	}
	filter.Skip, filter.Limit = page.Skip, page.Limit

	if filter.AuthorID, err = queryOptionalInt64(r, "author_id", 1); err != nil {
		return filter, err
	}
	if filter.GenreID, err = queryOptionalInt64(r, "genre_id", 1); err != nil {
		return filter, err
	}
	if filter.YearFrom, err = queryOptionalYear(r, "year_from", minYear, maxYear); err != nil {
		return filter, err
	}
	if filter.YearTo, err = queryOptionalYear(r, "year_to", minYear, maxYear); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetBook handles GET /api/v1/books/{id}.
// @Summary Get book
// @Description Returns the book with its author, genres and ratings.
// @Tags Books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.APIResponse{data=models.Book}
// @Failure 404 {object} models.APIResponse "Book not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/books/{id} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	book, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	h.publish("book", websocket.ActionUpdated, book.ID, 0)
	respondData(w, http.StatusOK, book)
}

// CreateBook handles POST /api/v1/books. A missing author or genre is a 404.
// @Summary Create book
// @Description Admin only.
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BookCreateRequest true "Book"
// @Success 201 {object} models.APIResponse{data=models.Book}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Author or genre not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req models.BookCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	book, err := h.store.CreateBook(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	h.invalidateRecommendations()
	h.publish("book", websocket.ActionCreated, book.ID, 0)
	logging.Ctx(r.Context()).Info().Int64("book_id", book.ID).Msg("Book created")
	respondData(w, http.StatusCreated, book)
}

// UpdateBook handles PUT /api/v1/books/{id}.
// @Summary Update book
// @Description Admin only. genre_ids replaces the genre set.
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body models.BookUpdateRequest true "Fields to change"
// @Success 200 {object} models.APIResponse{data=models.Book}
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Book, author or genre not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/books/{id} [put]
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	var req models.BookUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.IsEmpty() {
		respondServiceError(w, r, ErrNothingToUpdate, "book")
		return
	}
	if req.GenreIDs != nil && len(req.GenreIDs) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "genre_ids must not be empty", nil)
		return
	}

	book, err := h.store.UpdateBook(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	respondData(w, http.StatusOK, book)
}

// DeleteBook handles DELETE /api/v1/books/{id}.
// @Summary Delete book
// @Description Admin only. The book's ratings are deleted with it.
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204 "No Content"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Book not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/books/{id} [delete]
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := requirePathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "book")
		return
	}
	h.invalidateRecommendations()
	h.publish("book", websocket.ActionDeleted, id, 0)
	logging.Ctx(r.Context()).Info().Int64("book_id", id).Msg("Book deleted")
	w.WriteHeader(http.StatusNoContent)
}
