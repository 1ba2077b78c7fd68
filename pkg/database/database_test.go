package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bukukas/models"
	"bukukas/pkg/config"

	"golang.org/x/crypto/bcrypt"
)

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN("/tmp/a.db"); got != "/tmp/a.db?_foreign_keys=on" {
		t.Fatalf("got %s", got)
	}
	if got := sqliteDSN("/tmp/a.db?cache=shared"); got != "/tmp/a.db?cache=shared&_foreign_keys=on" {
		t.Fatalf("got %s", got)
	}
	if got := sqliteDSN("/tmp/a.db?_fk=1"); got != "/tmp/a.db?_fk=1" {
		t.Fatalf("got %s", got)
	}
}

func TestMigrateAndSeedIdempotent(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "kas.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("migrate #%d: %v", i, err)
		}
		if err := Seed(db, "rahasia1"); err != nil {
			t.Fatalf("seed #%d: %v", i, err)
		}
	}
	var roles, users int64
	db.Model(&models.Role{}).Count(&roles)
	db.Model(&models.User{}).Count(&users)
	if roles != 2 || users != 1 {
		t.Fatalf("roles=%d users=%d", roles, users)
	}
	var admin models.User
	if err := db.Preload("Role").Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}
	if admin.Role.Name != models.RoleAdmin {
		t.Fatalf("admin role=%q", admin.Role.Name)
	}
	if bcrypt.CompareHashAndPassword(admin.HashedPassword, []byte("rahasia1")) != nil {
		t.Fatalf("admin password not hashed with seed password")
	}
	if _, err := RoleID(db, models.RoleMember); err != nil {
		t.Fatalf("member role: %v", err)
	}
}

func TestSeedRejectsWeakAdminPassword(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "kas.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, pw := range []string{"", "abc"} {
		if err := Seed(db, pw); err == nil {
			t.Fatalf("Seed(%q) succeeded", pw)
		}
	}
	var users int64
	db.Model(&models.User{}).Count(&users)
	if users != 0 {
		t.Fatalf("admin created with a weak password: users=%d", users)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := Open(config.DBConfig{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIsUniqueConstraintError(t *testing.T) {
	if IsUniqueConstraintError(nil) {
		t.Fatalf("nil is not unique error")
	}
	if !IsUniqueConstraintError(errors.New("UNIQUE constraint failed: users.username")) {
		t.Fatalf("sqlite message not recognised")
	}
	if !IsUniqueConstraintError(errors.New(`ERROR: duplicate key value violates unique constraint "users_username_key"`)) {
		t.Fatalf("postgres message not recognised")
	}
}

// Postgres path is opt-in, like the integration tests.
func TestPostgresOpen(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	db, err := Open(config.DBConfig{Driver: "postgres", DSN: os.Getenv("DB_DSN")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
