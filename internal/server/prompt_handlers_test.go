package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"srefhub/internal/config"
	"srefhub/internal/models"
	"srefhub/internal/promptparse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini answers generateContent with a fixed JSON candidate.
func fakeGemini(t *testing.T, answer string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, ":generateContent") || r.Header.Get("x-goog-api-key") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": answer}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestParsePrompt_FallbackWithoutAPIKey(t *testing.T) {
	ts := newTestServer(t, false)
	_, token := ts.userWithToken("Prompter")

	var result promptparse.Result
	status := ts.requestJSON(http.MethodPost, "/api/prompts/parse",
		map[string]string{"prompt": "foggy harbor --ar 3:2 --chaos 20 --sref 12345 --tile"}, token, &result)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, promptparse.MethodFallback, result.Method)
	require.NotNil(t, result.Params.AR)
	assert.Equal(t, "3:2", *result.Params.AR)
	require.NotNil(t, result.Params.Chaos)
	assert.Equal(t, 20, *result.Params.Chaos)
	require.NotNil(t, result.Params.Sref)
	assert.Equal(t, "12345", *result.Params.Sref)
	require.NotNil(t, result.Params.Tile)
	assert.True(t, *result.Params.Tile)
	assert.Equal(t, "foggy harbor --ar 3:2 --chaos 20 --sref 12345 --tile", result.Params.Raw)
}

func TestParsePrompt_UsesGeminiWhenConfigured(t *testing.T) {
	gemini, calls := fakeGemini(t, `{"ar":"21:9","stylize":400,"version":"6.1"}`)
	ts := newTestServer(t, false, func(cfg *config.Config) {
		cfg.GeminiAPIKey = "test-key"
		cfg.GeminiEndpoint = gemini.URL
	})
	_, token := ts.userWithToken("Prompter")

	var result promptparse.Result
	status := ts.requestJSON(http.MethodPost, "/api/gemini/parse-prompt",
		map[string]string{"prompt": "desert dusk, wide"}, token, &result)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, promptparse.MethodGemini, result.Method)
	assert.Equal(t, int32(1), calls.Load())
	require.NotNil(t, result.Params.AR)
	assert.Equal(t, "21:9", *result.Params.AR)
	require.NotNil(t, result.Params.Stylize)
	assert.Equal(t, 400, *result.Params.Stylize)
	assert.Equal(t, "desert dusk, wide", result.Params.Raw)
}

func TestParsePrompt_GeminiDisabledByFlag(t *testing.T) {
	gemini, calls := fakeGemini(t, `{"ar":"21:9"}`)
	ts := newTestServer(t, false, func(cfg *config.Config) {
		cfg.GeminiAPIKey = "test-key"
		cfg.GeminiEndpoint = gemini.URL
		cfg.FeatureFlags = "llm_prompt_parsing=off"
	})
	_, token := ts.userWithToken("Prompter")

	var result promptparse.Result
	require.Equal(t, http.StatusOK, ts.requestJSON(http.MethodPost, "/api/prompts/parse",
		map[string]string{"prompt": "x --ar 1:1"}, token, &result))
	assert.Equal(t, promptparse.MethodFallback, result.Method)
	assert.Equal(t, int32(0), calls.Load())
}

func TestParsePrompt_MalformedGeminiAnswerFallsBack(t *testing.T) {
	gemini, _ := fakeGemini(t, `this is not json`)
	ts := newTestServer(t, false, func(cfg *config.Config) {
		cfg.GeminiAPIKey = "test-key"
		cfg.GeminiEndpoint = gemini.URL
	})
	_, token := ts.userWithToken("Prompter")

	var result promptparse.Result
	require.Equal(t, http.StatusOK, ts.requestJSON(http.MethodPost, "/api/prompts/parse",
		map[string]string{"prompt": "lake --ar 4:5"}, token, &result))
	assert.Equal(t, promptparse.MethodFallback, result.Method)
	assert.NotEmpty(t, result.Warning)
	require.NotNil(t, result.Params.AR)
	assert.Equal(t, "4:5", *result.Params.AR)
}

func TestParsePrompt_Validation(t *testing.T) {
	ts := newTestServer(t, false)
	_, token := ts.userWithToken("Prompter")

	var body models.ErrorResponse
	status := ts.requestJSON(http.MethodPost, "/api/prompts/parse", map[string]string{"prompt": "  "}, token, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "prompt is required", body.Error)

	status = ts.requestJSON(http.MethodPost, "/api/prompts/parse",
		map[string]string{"prompt": strings.Repeat("p", 2001)}, token, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.request(http.MethodPost, "/api/prompts/parse", map[string]string{"prompt": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetFeatureFlags(t *testing.T) {
	ts := newTestServer(t, false, func(cfg *config.Config) {
		cfg.FeatureFlags = "llm_prompt_parsing=off,markdown_descriptions=on"
	})

	var body struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	require.Equal(t, http.StatusOK, ts.requestJSON(http.MethodGet, "/api/feature-flags", nil, "", &body))
	assert.Equal(t, "off", body.Raw["llm_prompt_parsing"])
	assert.False(t, body.Evaluated["llm_prompt_parsing"])
	assert.True(t, body.Evaluated["markdown_descriptions"])
}
