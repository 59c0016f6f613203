// Package slug builds URL-safe, collision-resistant identifiers for styles.
package slug

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	maxBaseLength = 60
	// randomBytes gives 80 bits of entropy per suffix.
	randomBytes = 10
	fallback    = "style"
)

var encoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// Slugify lower-cases s, strips accents and joins alphanumeric runs with '-'.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
		if b.Len() >= maxBaseLength {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxBaseLength {
		out = strings.TrimRight(out[:maxBaseLength], "-")
	}
	if out == "" {
		return fallback
	}
	return out
}

// Suffix returns a time component in base36 followed by 80 random bits.
func Suffix(now time.Time) (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + encoding.EncodeToString(buf), nil
}

// New returns slugify(title) + "-" + Suffix.
func New(title string) (string, error) {
	suffix, err := Suffix(time.Now())
	if err != nil {
		return "", err
	}
	return Slugify(title) + "-" + suffix, nil
}
