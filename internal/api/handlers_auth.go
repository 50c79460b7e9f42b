// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package api

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/tomtom215/bookshelf/internal/auth"
	"github.com/tomtom215/bookshelf/internal/database"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/models"
)

const invalidCredentials = "Incorrect email or password"

// Register creates a reader account.
//
// POST /api/v1/register
// @Summary Register an account
// @Description Creates a reader account. Email and username must be unused.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account details"
// @Success 201 {object} models.APIResponse{data=models.User} "Account created"
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /api/v1/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)

	hash, err := auth.HashPassword(req.Password, h.bcryptCost())
	if err != nil {
		respondServiceError(w, r, err, "user")
		return
	}

	user := &models.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: hash,
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		respondServiceError(w, r, err, "user")
		return
	}
	h.invalidateRecommendations()

	logging.Ctx(r.Context()).Info().
		Int64("user_id", user.ID).
		Str("username", sanitizeLogValue(user.Username)).
		Msg("User registered")
	h.auditLog.LogUserCreated(r, user.ID, user.Username)
	respondData(w, http.StatusCreated, user)
}

// Login exchanges credentials for a bearer token. It accepts a JSON body
// {"email","password"} or an OAuth2 password form where "username" holds
// the email.
//
// POST /api/v1/login
// @Summary Obtain an access token
// @Description Accepts JSON {email,password} or an OAuth2 password form whose username field holds the email.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.TokenResponse} "Bearer token"
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 401 {object} models.APIResponse "Invalid credentials"
// @Failure 429 {object} models.APIResponse "Account locked or rate limited"
// @Router /api/v1/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseLogin(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	ip := auth.ClientIP(r)

	if h.lockout != nil {
		locked, remaining, err := h.lockout.CheckRequest(ctx, req.Email, ip)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Lockout check failed")
		} else if locked {
			metrics.RecordLogin("locked")
			h.auditLog.LogLoginFailure(r, req.Email, "locked")
			auth.WriteLocked(w, remaining)
			return
		}
	}

	user, err := h.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		respondServiceError(w, r, err, "user")
		return
	}

	hash := ""
	if user != nil {
		hash = user.HashedPassword
	}
	if !auth.CheckPassword(hash, req.Password) {
		h.loginFailed(w, r, req.Email, ip)
		return
	}

	if h.lockout != nil {
		if err := h.lockout.RecordSuccessfulLogin(ctx, req.Email); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear lockout state")
		}
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		respondServiceError(w, r, err, "token")
		return
	}

	metrics.RecordLogin("success")
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("User logged in")
	h.auditLog.LogLoginSuccess(r, user.ID, user.Username)
	writeToken(w, token)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email, ip string) {
	metrics.RecordLogin("failure")
	h.auditLog.LogLoginFailure(r, email, "invalid_credentials")
	if h.lockout != nil {
		locked, remaining, err := h.lockout.RecordFailedAttempt(r.Context(), email, ip)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to record login attempt")
		} else if locked {
			logging.Ctx(r.Context()).Warn().
				Str("email", sanitizeLogValue(email)).
				Str("ip", ip).
				Msg("Account locked after failed logins")
			h.auditLog.LogLockout(r, email, remaining)
		}
	}
	auth.WriteUnauthorized(w, "INVALID_CREDENTIALS", invalidCredentials)
}

// parseLogin reads the credentials from either body format.
func (h *Handler) parseLogin(w http.ResponseWriter, r *http.Request) (*models.LoginRequest, bool) {
	var req models.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid form body", nil)
			return nil, false
		}
		req.Email = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		if apiErr := validateRequest(&req); apiErr != nil {
			respondAPIError(w, apiErr)
			return nil, false
		}
	default:
		if !decodeAndValidate(w, r, &req) {
			return nil, false
		}
	}

	req.Email = normalizeEmail(req.Email)
	return &req, true
}

// writeToken sends the token inside the usual envelope. Tokens must not be
// cached.
func writeToken(w http.ResponseWriter, token string) {
	w.Header().Set("Cache-Control", "no-store")
	respondData(w, http.StatusOK, &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated account.
//
// GET /api/v1/me
// @Summary Current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Router /api/v1/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	hctx := requireUser(w, r)
	if hctx == nil {
		return
	}
	respondData(w, http.StatusOK, hctx.User)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
