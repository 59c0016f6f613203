package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash of plaintext at the default cost.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches hash.
func CheckPassword(hash, plaintext string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// dummyHash is compared against when the account does not exist so unknown
// emails cost the same as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("srefhub-timing-equaliser"), bcrypt.DefaultCost)

// BurnPasswordCheck performs a throwaway comparison.
func BurnPasswordCheck(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
}
