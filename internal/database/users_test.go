// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"context"
	"testing"

	"github.com/tomtom215/bookshelf/internal/models"
)

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	alice := mustCreateUser(t, db, "alice")
	if alice.ID == 0 {
		t.Fatal("expected id to be assigned")
	}
	if alice.CreatedAt.IsZero() {
		t.Error("expected created_at to be assigned")
	}

	tests := []struct {
		name    string
		user    models.User
		wantErr error
	}{
		{
			name:    "email taken",
			user:    models.User{Email: "alice@example.com", Username: "alice2", HashedPassword: "x"},
			wantErr: ErrEmailTaken,
		},
		{
			name:    "username taken",
			user:    models.User{Email: "other@example.com", Username: "alice", HashedPassword: "x"},
			wantErr: ErrUsernameTaken,
		},
		{
			name:    "both taken reports email first",
			user:    models.User{Email: "alice@example.com", Username: "alice", HashedPassword: "x"},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			checkErrorIs(t, db.CreateUser(ctx, &u), tt.wantErr)
		})
	}
}

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	bob := mustCreateUser(t, db, "bob")

	byID, err := db.GetUserByID(ctx, bob.ID)
	checkNoError(t, err)
	if byID.Username != "bob" || byID.Email != "bob@example.com" {
		t.Errorf("GetUserByID() = %+v", byID)
	}
	if byID.HashedPassword != bob.HashedPassword {
		t.Error("expected hashed password to round-trip")
	}
	if byID.IsAdmin {
		t.Error("new user should not be admin")
	}

	byEmail, err := db.GetUserByEmail(ctx, "bob@example.com")
	checkNoError(t, err)
	if byEmail.ID != bob.ID {
		t.Errorf("GetUserByEmail() id = %d, want %d", byEmail.ID, bob.ID)
	}

	byName, err := db.GetUserByUsername(ctx, "bob")
	checkNoError(t, err)
	if byName.ID != bob.ID {
		t.Errorf("GetUserByUsername() id = %d, want %d", byName.ID, bob.ID)
	}

	_, err = db.GetUserByID(ctx, 999)
	checkErrorIs(t, err, ErrNotFound)
	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	checkErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	admin, created, err := db.EnsureAdmin(ctx, "admin", "admin@example.com", "hash")
	checkNoError(t, err)
	if !created {
		t.Error("first call should create the admin")
	}
	if !admin.IsAdmin {
		t.Error("admin should have is_admin set")
	}

	again, created, err := db.EnsureAdmin(ctx, "admin", "admin@example.com", "other-hash")
	checkNoError(t, err)
	if created {
		t.Error("second call should not create a row")
	}
	if again.ID != admin.ID {
		t.Errorf("second call returned id %d, want %d", again.ID, admin.ID)
	}
	if again.HashedPassword != "hash" {
		t.Error("existing admin password should be left alone")
	}
}

func TestEnsureAdmin_PromotesExistingUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	carol := mustCreateUser(t, db, "carol")

	admin, created, err := db.EnsureAdmin(ctx, "carol", "carol-admin@example.com", "hash")
	checkNoError(t, err)
	if created {
		t.Error("existing username should not create a new row")
	}
	if admin.ID != carol.ID || !admin.IsAdmin {
		t.Errorf("EnsureAdmin() = %+v, want promoted user %d", admin, carol.ID)
	}

	stored, err := db.GetUserByID(ctx, carol.ID)
	checkNoError(t, err)
	if !stored.IsAdmin {
		t.Error("promotion was not persisted")
	}
}
