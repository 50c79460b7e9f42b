// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package authz enforces role-based permissions with Casbin.
//
// Requests pass authentication first, then authorization:
//
//	Request -> auth.Middleware.Authenticate -> authz.Middleware.Require -> Handler
//
// # RBAC Model
//
// The embedded model is a plain ACL with one level of role inheritance:
//
//	[request_definition]
//	r = sub, obj, act
//
//	[policy_definition]
//	p = sub, obj, act
//
//	[role_definition]
//	g = _, _
//
//	[matchers]
//	m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
//
// Subjects are role names (reader, admin). Objects are resource names
// (books, genres, authors, ratings, recommendations, profile, changes,
// audit, backups). Actions are read and write.
//
// The embedded policy.csv can be replaced at startup with a file path.
package authz
