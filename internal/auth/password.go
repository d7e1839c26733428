package auth

import (
	"golang.org/x/crypto/bcrypt"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
// A mismatch returns ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return perrors.ErrInvalidCredentials
	}
	return nil
}
