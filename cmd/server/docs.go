// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// @title Bookshelf API
// @version 1.0
// @description Book catalog with user-based collaborative filtering recommendations.
// @description
// @description ## Authentication
// @description
// @description Obtain a token from `POST /api/v1/login` and send it as `Authorization: Bearer <token>`.
// @description Catalog reads are public. Genre and book writes, audit events and backups are admin only.
// @description
// @description ## Error Responses
// @description
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {"code": "ERROR_CODE", "message": "Human-readable message"},
// @description   "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/bookshelf/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT from POST /api/v1/login, sent as "Authorization: Bearer <token>".
//
// @tag.name Auth
// @tag.description Registration, login and the current account
//
// @tag.name Authors
// @tag.description Author catalog
//
// @tag.name Genres
// @tag.description Genre catalog
//
// @tag.name Books
// @tag.description Book catalog with filters
//
// @tag.name Ratings
// @tag.description Per-user book ratings
//
// @tag.name Recommendations
// @tag.description Collaborative filtering recommendations with a global-average fallback
//
// @tag.name Realtime
// @tag.description Websocket change feed
//
// @tag.name Admin
// @tag.description Audit events and backups
//
// @tag.name Core
// @tag.description Health checks
package main
