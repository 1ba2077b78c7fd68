// Package password holds the password policy shared by provisioning paths.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length.
const MinLength = 6

// Check reports whether pw satisfies the policy.
func Check(pw string) error {
	if len(pw) < MinLength {
		return fmt.Errorf("password too short (min %d)", MinLength)
	}
	return nil
}

// Hash applies the policy and returns a bcrypt hash.
func Hash(pw string) ([]byte, error) {
	if err := Check(pw); err != nil {
		return nil, err
	}
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}
