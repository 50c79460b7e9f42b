// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package models

// Role names. They match the subjects in internal/authz/policy.csv.
const (
	// RoleReader is any authenticated user.
	RoleReader = "reader"

	// RoleAdmin manages the catalog and inherits reader.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names.
var ValidRoles = []string{RoleReader, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleFor returns the role of a user account.
func RoleFor(isAdmin bool) string {
	if isAdmin {
		return RoleAdmin
	}
	return RoleReader
}
