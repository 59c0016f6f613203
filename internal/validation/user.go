package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	NameMinLength = 2
	NameMaxLength = 50
	BioMaxLength  = 500
	maxURLLength  = 500
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks email syntax on the normalized value.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 255 || !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidateName checks display name length after trimming.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < NameMinLength || n > NameMaxLength {
		return fmt.Errorf("name must be between %d and %d characters", NameMinLength, NameMaxLength)
	}
	return nil
}

// ValidateBio checks the profile bio length.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return fmt.Errorf("bio must be at most %d characters", BioMaxLength)
	}
	return nil
}

// ValidateImageURL accepts absolute http(s) URLs and paths served from this API.
func ValidateImageURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("image URL is required")
	}
	if len(raw) > maxURLLength {
		return fmt.Errorf("image URL must be at most %d characters", maxURLLength)
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image URL must be an http(s) URL")
	}
	return nil
}

// ValidateAvatarURL allows clearing the avatar with an empty string.
func ValidateAvatarURL(raw string) error {
	if raw == "" {
		return nil
	}
	if err := ValidateImageURL(raw); err != nil {
		return fmt.Errorf("avatar must be an http(s) URL")
	}
	return nil
}
