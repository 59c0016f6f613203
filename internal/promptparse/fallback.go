package promptparse

import (
	"regexp"
	"strconv"
	"strings"

	"srefhub/internal/models"
)

const maxSeed = 4294967295

var (
	srefCodeRegex = regexp.MustCompile(`^\d+$`)
	arRegex       = regexp.MustCompile(`^\d+:\d+$`)
	versionRegex  = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// flagAliases maps every accepted spelling to its canonical parameter.
var flagAliases = map[string]string{
	"sref":    "sref",
	"ar":      "ar",
	"aspect":  "ar",
	"stylize": "stylize",
	"s":       "stylize",
	"chaos":   "chaos",
	"c":       "chaos",
	"seed":    "seed",
	"weird":   "weird",
	"w":       "weird",
	"v":       "version",
	"version": "version",
	"tile":    "tile",
	"niji":    "niji",
}

type flag struct {
	name   string
	values []string
}

// tokenize splits a prompt into --flag groups. Text before the first flag is
// the subject and is ignored.
func tokenize(prompt string) []flag {
	// Some editors turn "--" into an em or en dash.
	prompt = strings.NewReplacer("—", "--", "–", "--").Replace(prompt)

	var flags []flag
	for _, field := range strings.Fields(prompt) {
		if strings.HasPrefix(field, "--") && len(field) > 2 {
			flags = append(flags, flag{name: strings.ToLower(strings.TrimLeft(field, "-"))})
			continue
		}
		if n := len(flags); n > 0 {
			flags[n-1].values = append(flags[n-1].values, strings.TrimRight(field, ",;"))
		}
	}
	return flags
}

// Fallback extracts Midjourney parameters with a deterministic local grammar.
// Unknown flags and out-of-range values are dropped. Raw is always prompt.
func Fallback(prompt string) models.MidjourneyParams {
	params := models.MidjourneyParams{Raw: prompt}

	for _, f := range tokenize(prompt) {
		canonical, ok := flagAliases[f.name]
		if !ok {
			continue
		}
		first := ""
		if len(f.values) > 0 {
			first = f.values[0]
		}

		switch canonical {
		case "sref":
			var codes []string
			for _, v := range f.values {
				if !srefCodeRegex.MatchString(v) {
					break
				}
				codes = append(codes, v)
			}
			if len(codes) > 0 {
				params.Sref = models.StringPtr(strings.Join(codes, " "))
			}
		case "ar":
			if arRegex.MatchString(first) && models.IsAspectRatio(first) {
				params.AR = models.StringPtr(first)
			}
		case "stylize":
			params.Stylize = boundedInt(first, models.MaxStylize)
		case "chaos":
			params.Chaos = boundedInt(first, models.MaxChaos)
		case "weird":
			params.Weird = boundedInt(first, models.MaxWeird)
		case "seed":
			if n, err := strconv.ParseInt(first, 10, 64); err == nil && n >= 0 && n <= maxSeed {
				params.Seed = models.Int64Ptr(n)
			}
		case "version":
			if versionRegex.MatchString(first) {
				params.Version = models.VersionPtr(first)
			}
		case "tile":
			params.Tile = models.BoolPtr(true)
		case "niji":
			params.Model = models.StringPtr("niji")
			if versionRegex.MatchString(first) {
				params.Version = models.VersionPtr(first)
			}
		}
	}
	return params
}

func boundedInt(raw string, max int) *int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > max {
		return nil
	}
	return models.IntPtr(n)
}
