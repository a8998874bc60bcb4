// Package cryptox holds the password hasher and the symmetric vault that
// protects remote API keys at rest.
package cryptox

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor used for every stored password. One hash
// takes roughly 100-250ms on commodity hardware.
const BcryptCost = 12

// bcryptCost is a seam for tests that need cheaper hashes.
var bcryptCost = BcryptCost

// ValidatePassword checks the byte length limits of the hasher.
func ValidatePassword(password string) error {
	if len(password) < common.MinPasswordLength {
		return &common.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d bytes", common.MinPasswordLength)}
	}
	if len(password) > common.MaxPasswordLength {
		return &common.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at most %d bytes", common.MaxPasswordLength)}
	}
	return nil
}

// HashPassword returns the bcrypt hash string of password.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. A mismatch is not an
// error; a malformed hash is.
func VerifyPassword(password, hash string) (bool, error) {
	if len(password) > common.MaxPasswordLength {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}
