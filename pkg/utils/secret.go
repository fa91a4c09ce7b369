package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns a bcrypt hash suitable for ADMIN_KEY_HASH.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckSecret compares a presented secret against a bcrypt hash.
func CheckSecret(hashedSecret, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
	return err == nil
}

// SecretEqual compares two secrets in constant time.
func SecretEqual(expected, presented string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
