// Package validation holds input rules shared by services and handlers.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	// bcrypt ignores input past 72 bytes and newer x/crypto rejects it.
	PasswordMaxBytes = 72
)

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLength)
	}
	if len(password) > PasswordMaxBytes {
		return fmt.Errorf("password must be at most %d bytes", PasswordMaxBytes)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be blank")
	}
	return nil
}
