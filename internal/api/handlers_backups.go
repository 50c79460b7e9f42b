// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bookshelf/internal/backup"
	"github.com/tomtom215/bookshelf/internal/logging"
)

// ListBackups handles GET /api/v1/admin/backups, newest first.
// @Summary List backups
// @Description Admin only. Newest first.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=[]backup.Backup}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 503 {object} models.APIResponse "Backups disabled"
// @Router /api/v1/admin/backups [get]
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.backupsEnabled(w) {
		return
	}
	respondData(w, http.StatusOK, h.backups.List())
}

// CreateBackup handles POST /api/v1/admin/backups. The export runs inside
// the request; a second concurrent request gets 409.
// @Summary Create backup
// @Description Admin only. Runs a manual backup inside the request.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.APIResponse{data=backup.Backup}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 409 {object} models.APIResponse "Backup already running"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Failure 503 {object} models.APIResponse "Backups disabled"
// @Router /api/v1/admin/backups [post]
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupsEnabled(w) {
		return
	}
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}

	callerID := hctx.UserID()
	b, err := h.backups.Create(r.Context(), backup.TriggerManual, &callerID)
	if err != nil {
		h.auditLog.LogBackup(r, callerID, hctx.User.Username, "", err)
		respondServiceError(w, r, err, "backup")
		return
	}
	h.auditLog.LogBackup(r, callerID, hctx.User.Username, b.ID, nil)

	logging.Ctx(r.Context()).Info().
		Str("backup_id", b.ID).
		Int64("user_id", callerID).
		Msg("Manual backup created")
	respondData(w, http.StatusCreated, b)
}

// DownloadBackup handles GET /api/v1/admin/backups/{id}/download.
// @Summary Download backup
// @Description Admin only.
// @Tags Admin
// @Produce application/gzip
// @Security BearerAuth
// @Param id path string true "Backup ID"
// @Success 200 {file} file "tar.gz archive"
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 403 {object} models.APIResponse "Forbidden"
// @Failure 404 {object} models.APIResponse "Backup not found"
// @Failure 503 {object} models.APIResponse "Backups disabled"
// @Router /api/v1/admin/backups/{id}/download [get]
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupsEnabled(w) {
		return
	}
	id := chi.URLParam(r, "id")
	path, err := h.backups.Path(id)
	if err != nil {
		respondServiceError(w, r, err, "backup")
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="bookshelf-`+id+`.tar.gz"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) backupsEnabled(w http.ResponseWriter) bool {
	if h.backups == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Backups are disabled", nil)
		return false
	}
	return true
}
