package promptparse

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"srefhub/internal/models"
)

// looseParams mirrors the LLM schema but tolerates numbers sent as strings
// and strings sent as numbers.
type looseParams struct {
	Sref    json.RawMessage `json:"sref"`
	Model   json.RawMessage `json:"model"`
	Seed    json.RawMessage `json:"seed"`
	AR      json.RawMessage `json:"ar"`
	Chaos   json.RawMessage `json:"chaos"`
	Stylize json.RawMessage `json:"stylize"`
	Weird   json.RawMessage `json:"weird"`
	Tile    json.RawMessage `json:"tile"`
	Version json.RawMessage `json:"version"`
}

// decodeParams turns LLM output into params. Values that fail the same
// checks as the fallback grammar are dropped rather than rejected.
func decodeParams(data []byte) (models.MidjourneyParams, error) {
	var out models.MidjourneyParams
	if len(bytes.TrimSpace(data)) == 0 {
		return out, errors.New("empty body")
	}
	var loose looseParams
	if err := json.Unmarshal(data, &loose); err != nil {
		return out, err
	}

	if s, ok := looseString(loose.Sref); ok {
		codes := strings.Fields(s)
		valid := len(codes) > 0
		for _, c := range codes {
			if !srefCodeRegex.MatchString(c) {
				valid = false
				break
			}
		}
		if valid {
			out.Sref = models.StringPtr(strings.Join(codes, " "))
		}
	}
	if s, ok := looseString(loose.Model); ok && s != "" {
		out.Model = models.StringPtr(s)
	}
	if n, ok := looseNumber(loose.Seed); ok && n >= 0 && n <= maxSeed {
		out.Seed = models.Int64Ptr(int64(n))
	}
	if s, ok := looseString(loose.AR); ok && models.IsAspectRatio(s) {
		out.AR = models.StringPtr(s)
	}
	out.Chaos = looseBounded(loose.Chaos, models.MaxChaos)
	out.Stylize = looseBounded(loose.Stylize, models.MaxStylize)
	out.Weird = looseBounded(loose.Weird, models.MaxWeird)
	if len(loose.Tile) > 0 {
		var b bool
		if err := json.Unmarshal(loose.Tile, &b); err == nil && b {
			out.Tile = models.BoolPtr(true)
		}
	}
	if s, ok := looseString(loose.Version); ok && versionRegex.MatchString(s) {
		out.Version = models.VersionPtr(s)
	}
	return out, nil
}

func looseString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func looseNumber(raw json.RawMessage) (float64, bool) {
	s, ok := looseString(raw)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return f, true
}

func looseBounded(raw json.RawMessage, max int) *int {
	f, ok := looseNumber(raw)
	if !ok || f < 0 || f > float64(max) {
		return nil
	}
	return models.IntPtr(int(f))
}
