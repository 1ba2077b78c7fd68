// Package auth verifies credentials against the users table.
package auth

import (
	"context"
	"errors"
	"strings"

	"bukukas/models"
	"bukukas/pkg/apperr"
	"bukukas/pkg/password"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MinPasswordLength is the provisioning password policy.
const MinPasswordLength = password.MinLength

// ErrInvalidCredentials is returned for an unknown username and for a wrong password alike.
var ErrInvalidCredentials = apperr.Authentication("Username atau password salah.")

// Identity is the authenticated principal carried through a request.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// dummyHash is compared against when the user does not exist so both failure paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

type Authenticator struct {
	db *gorm.DB
}

func NewAuthenticator(db *gorm.DB) *Authenticator {
	return &Authenticator{db: db}
}

// Authenticate checks username/password and returns the identity with the stored role.
func (a *Authenticator) Authenticate(ctx context.Context, username, pw string) (Identity, error) {
	username = strings.TrimSpace(username)
	var user models.User
	err := a.db.WithContext(ctx).Preload("Role").Where("username = ?", username).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, apperr.Storage("lookup user", err)
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
		return Identity{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(pw)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{UserID: user.ID, Username: user.Username, Role: user.Role.Name}, nil
}

// HashPassword applies the password policy and returns a bcrypt hash.
func HashPassword(pw string) ([]byte, error) {
	return password.Hash(pw)
}
