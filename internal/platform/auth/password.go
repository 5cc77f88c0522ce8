package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// separator joins the bcrypt hash and the extra salt in the stored value.
// "@" never appears in hex or bcrypt output so the split is unambiguous.
const separator = "@"

// HashPassword salts and hashes a password for storage. The random salt is
// appended to the password before bcrypt and stored alongside the hash so
// verification can reproduce it.
func HashPassword(password string) (string, error) {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash) + separator + salt, nil
}

// VerifyPassword reports whether password matches the stored hash+salt value.
// Malformed stored values verify as false rather than erroring.
func VerifyPassword(password, stored string) bool {
	idx := strings.LastIndex(stored, separator)
	if idx < 0 {
		return false
	}
	hash, salt := stored[:idx], stored[idx+1:]
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)) == nil
}
