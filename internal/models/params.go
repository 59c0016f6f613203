package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Parameter bounds accepted by Midjourney.
const (
	MaxChaos   = 100
	MaxStylize = 1000
	MaxWeird   = 3000

	// MaxRawPrompt counts characters, not bytes.
	MaxRawPrompt = 2000
)

// MidjourneyParams is the structured parameter bag attached to a style.
// A nil pointer means the parameter was absent from the prompt.
type MidjourneyParams struct {
	Sref    *string        `json:"sref,omitempty"`
	Model   *string        `json:"model,omitempty"`
	Seed    *int64         `json:"seed,omitempty"`
	AR      *string        `json:"ar,omitempty"`
	Chaos   *int           `json:"chaos,omitempty"`
	Stylize *int           `json:"stylize,omitempty"`
	Weird   *int           `json:"weird,omitempty"`
	Tile    *bool          `json:"tile,omitempty"`
	Version *VersionString `json:"version,omitempty"`
	Raw     string         `json:"raw,omitempty"`
}

// IsEmpty reports whether no structured parameter is present.
func (p MidjourneyParams) IsEmpty() bool {
	return p.Sref == nil && p.Model == nil && p.Seed == nil && p.AR == nil &&
		p.Chaos == nil && p.Stylize == nil && p.Weird == nil && p.Tile == nil && p.Version == nil
}

// Validate checks numeric ranges and formats. It returns a ValidationError.
func (p MidjourneyParams) Validate() error {
	if p.Chaos != nil && (*p.Chaos < 0 || *p.Chaos > MaxChaos) {
		return NewValidationError(fmt.Sprintf("chaos must be between 0 and %d", MaxChaos))
	}
	if p.Stylize != nil && (*p.Stylize < 0 || *p.Stylize > MaxStylize) {
		return NewValidationError(fmt.Sprintf("stylize must be between 0 and %d", MaxStylize))
	}
	if p.Weird != nil && (*p.Weird < 0 || *p.Weird > MaxWeird) {
		return NewValidationError(fmt.Sprintf("weird must be between 0 and %d", MaxWeird))
	}
	if p.Seed != nil && *p.Seed < 0 {
		return NewValidationError("seed must be a non-negative integer")
	}
	if p.AR != nil && !IsAspectRatio(*p.AR) {
		return NewValidationError("ar must look like W:H")
	}
	if utf8.RuneCountInString(p.Raw) > MaxRawPrompt {
		return NewValidationError(fmt.Sprintf("raw prompt must be at most %d characters", MaxRawPrompt))
	}
	return nil
}

// IsAspectRatio reports whether s has the form "W:H" with positive integers.
func IsAspectRatio(s string) bool {
	w, h, ok := strings.Cut(s, ":")
	if !ok {
		return false
	}
	wi, err := strconv.Atoi(w)
	if err != nil || wi <= 0 {
		return false
	}
	hi, err := strconv.Atoi(h)
	if err != nil || hi <= 0 {
		return false
	}
	return true
}

// VersionString is a model version that clients may send as "6.1" or 6.1.
type VersionString string

// UnmarshalJSON accepts a JSON string or number.
func (v *VersionString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VersionString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a string or number: %w", err)
	}
	*v = VersionString(n.String())
	return nil
}

// Ptr helpers used by parsers and tests.
func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
func Int64Ptr(i int64) *int64    { return &i }
func BoolPtr(b bool) *bool       { return &b }

// VersionPtr returns a pointer to the given version.
func VersionPtr(s string) *VersionString {
	v := VersionString(s)
	return &v
}
