// Package authutil holds the password rules shared by registration, the
// admin CLI and the super-admin bootstrap.
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength stays under bcrypt's 72-byte input limit for ASCII
	// and rejects absurd request bodies early.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common; choose something harder to guess")
)

var commonPasswords = map[string]struct{}{
	"12345678": {}, "123456789": {}, "1234567890": {}, "password": {},
	"password1": {}, "qwertyuiop": {}, "iloveyou": {}, "football": {},
	"baseball": {}, "sunshine": {}, "welcome1": {}, "letmein1": {},
	"abcd1234": {}, "11111111": {}, "00000000": {}, "trustno1": {},
}

// ValidatePassword checks length and rejects well-known passwords.
func ValidatePassword(pw string) error {
	switch n := len(pw); {
	case n < MinPasswordLength:
		return ErrPasswordTooShort
	case n > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	if _, common := commonPasswords[strings.ToLower(pw)]; common {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the rules for form help text.
func PasswordRules() string {
	return fmt.Sprintf("Use %d to %d characters. Avoid common passwords.", MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. A malformed or empty
// hash never matches.
func CheckPassword(pw, hash string) bool {
	if hash == "" || pw == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
