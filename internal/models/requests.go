// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

// Request bodies. Validation tags are enforced by internal/validation;
// personname, genrename and username are custom tags registered there.

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthorCreateRequest struct {
	Name string  `json:"name" validate:"required,min=2,max=100,personname"`
	Bio  *string `json:"bio" validate:"omitempty,max=1000"`
}

type AuthorUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=100,personname"`
	Bio  *string `json:"bio" validate:"omitempty,max=1000"`
}

// IsEmpty reports an update that changes nothing.
func (r *AuthorUpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Bio == nil
}

type GenreRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100,genrename"`
}

type BookCreateRequest struct {
	Title           string  `json:"title" validate:"required,min=1,max=200"`
	PublicationYear int     `json:"publication_year" validate:"required,min=1000,max=2100"`
	AuthorID        int64   `json:"author_id" validate:"required,min=1"`
	GenreIDs        []int64 `json:"genre_ids" validate:"required,min=1,dive,min=1"`
}

// BookUpdateRequest is a partial update. A non-nil GenreIDs replaces the
// book's genres and must not be empty.
type BookUpdateRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	PublicationYear *int    `json:"publication_year" validate:"omitempty,min=1000,max=2100"`
	AuthorID        *int64  `json:"author_id" validate:"omitempty,min=1"`
	GenreIDs        []int64 `json:"genre_ids" validate:"omitempty,min=1,dive,min=1"`
}

// IsEmpty reports an update that changes nothing.
func (r *BookUpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.PublicationYear == nil && r.AuthorID == nil && r.GenreIDs == nil
}

type RatingCreateRequest struct {
	BookID int64   `json:"book_id" validate:"required,min=1"`
	Rating int     `json:"rating" validate:"required,min=1,max=10"`
	Review *string `json:"review" validate:"omitempty,max=1000"`
}

type RatingUpdateRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=10"`
	Review *string `json:"review" validate:"omitempty,max=1000"`
}

// IsEmpty reports an update that changes nothing.
func (r *RatingUpdateRequest) IsEmpty() bool {
	return r.Rating == nil && r.Review == nil
}
