// Package featureflags evaluates runtime feature toggles from FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// LLMPromptParsing routes prompt parsing through the LLM before the regex fallback.
const LLMPromptParsing = "llm_prompt_parsing"

// defaults apply to flags that FEATURE_FLAGS does not mention.
var defaults = map[string]string{
	LLMPromptParsing: "on",
}

// rule is a parsed flag value. percent is 0..100; on/off map to 100/0.
// Unrecognised values evaluate as off.
type rule struct {
	raw     string
	percent int
}

func parseRule(value string) rule {
	r := rule{raw: value}
	switch value {
	case "on", "true", "1":
		r.percent = 100
	case "off", "false", "0":
	default:
		if pct, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil && strings.HasSuffix(value, "%") {
			r.percent = min(max(pct, 0), 100)
		}
	}
	return r
}

// Manager holds flags parsed from a comma-separated key=value list such
// as "llm_prompt_parsing=25%,markdown_descriptions=off".
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw on top of the defaults. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule, len(defaults))}
	for name, value := range defaults {
		m.rules[name] = parseRule(value)
	}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = normalize(key), normalize(value)
		if !ok || key == "" || value == "" {
			continue
		}
		m.rules[key] = parseRule(value)
	}
	return m
}

// Enabled reports whether name is on for userID. Partial rollouts bucket
// users deterministically and never include anonymous callers.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	r, ok := m.rules[name]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// Raw returns the configured value of every known flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every known flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
