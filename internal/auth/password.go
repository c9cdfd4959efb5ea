package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the stored hashes were created with.
const bcryptCost = 10

// HashPassword hashes a plaintext password using bcrypt. Output differs per
// call because of the embedded random salt; verification stays deterministic.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}
	return string(hash), nil
}

// VerifyPassword compares plaintext with the stored hash. A mismatch returns
// false, never an error; only malformed hashes surface as failures.
func VerifyPassword(hash, password string) (bool, error) {
	if hash == "" {
		return false, fmt.Errorf("%w: password hash is empty", ErrInternal)
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: verify password: %v", ErrInternal, err)
}
