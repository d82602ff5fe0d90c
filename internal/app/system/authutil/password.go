// Package authutil holds the password rules for back-office accounts.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 10
	// bcrypt ignores bytes past 72, so longer passwords are rejected
	// rather than silently truncated.
	MaxPasswordLength = 72
	BcryptCost        = 12
)

var (
	ErrPasswordTooShort = errors.New("Password must be at least 10 characters.")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters.")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

var commonPasswords = map[string]struct{}{
	"1234567890":    {},
	"password123":   {},
	"password1234":  {},
	"qwertyuiop":    {},
	"iloveyou123":   {},
	"letmein1234":   {},
	"welcome123":    {},
	"admin12345":    {},
	"administrator": {},
	"changeme123":   {},
	"nonprofit123":  {},
	"volunteer123":  {},
	"donate12345":   {},
}

// PasswordRules describes the rules for display on forms.
func PasswordRules() string {
	return "Use at least 10 characters. Common passwords such as \"password123\" are not accepted."
}

// ValidatePassword returns nil when password satisfies the rules.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether hash was made with a cost below BcryptCost.
// Malformed hashes also report true.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost < BcryptCost
}
