package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bukukas/models"
	"bukukas/pkg/apperr"
	"bukukas/pkg/config"
	"bukukas/pkg/database"

	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "auth.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db, "admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rid, err := database.RoleID(db, models.RoleMember)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	hash, err := HashPassword("bendahara")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&models.User{Username: "siti", HashedPassword: hash, RoleID: &rid}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return db
}

func TestAuthenticateCarriesStoredRole(t *testing.T) {
	a := NewAuthenticator(setupDB(t))
	ctx := context.Background()

	id, err := a.Authenticate(ctx, " admin ", "admin123")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if id.Username != "admin" || !id.IsAdmin() {
		t.Fatalf("unexpected identity %+v", id)
	}
	id, err = a.Authenticate(ctx, "siti", "bendahara")
	if err != nil {
		t.Fatalf("member login: %v", err)
	}
	if id.Role != models.RoleMember || id.IsAdmin() {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestAuthenticateFailuresIndistinguishable(t *testing.T) {
	a := NewAuthenticator(setupDB(t))
	ctx := context.Background()

	_, errUser := a.Authenticate(ctx, "nobody", "admin123")
	_, errPass := a.Authenticate(ctx, "admin", "wrong-password")
	if errUser == nil || errPass == nil {
		t.Fatalf("expected failures got %v / %v", errUser, errPass)
	}
	if errUser.Error() != errPass.Error() {
		t.Fatalf("errors differ: %q vs %q", errUser, errPass)
	}
	if !errors.Is(errUser, apperr.ErrUnauthorized) || apperr.Status(errPass) != 401 {
		t.Fatalf("expected authentication kind")
	}
}

func TestHashPasswordPolicy(t *testing.T) {
	if _, err := HashPassword("123"); err == nil {
		t.Fatalf("short password accepted")
	}
	h, err := HashPassword("123456")
	if err != nil || len(h) == 0 {
		t.Fatalf("hash: %v", err)
	}
}
