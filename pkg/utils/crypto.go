package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const idChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomID generates a random lowercase alphanumeric string of the given length.
func RandomID(length int) string {
	result := make([]byte, length)
	charsLen := big.NewInt(int64(len(idChars)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			result[i] = idChars[0]
			continue
		}
		result[i] = idChars[num.Int64()]
	}

	return string(result)
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// ComparePassword compares a hashed password with a plain password.
func ComparePassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
