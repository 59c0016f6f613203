package promptparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"srefhub/internal/models"
	"srefhub/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
)

const systemInstruction = `You are an expert at parsing Midjourney prompts. Extract all parameters from the user's text and return them as a JSON object matching the provided schema. The "model" can be inferred from parameters like "--niji". If a parameter is not present, omit its key from the JSON. The prompt text itself should be ignored. For example, from "a dog --ar 16:9 --sref 123", you extract {"ar": "16:9", "sref": "123"}.`

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("LLM extractor is not configured")
	// ErrMalformedResponse is returned when the LLM reply cannot be decoded.
	ErrMalformedResponse = errors.New("LLM returned a malformed response")
)

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// GeminiExtractor asks Gemini for structured parameters.
type GeminiExtractor struct {
	cfg GeminiConfig
}

// NewGeminiExtractor returns an extractor. Zero values fall back to defaults.
func NewGeminiExtractor(cfg GeminiConfig) *GeminiExtractor {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &GeminiExtractor{cfg: cfg}
}

// Configured reports whether an API key is present.
func (g *GeminiExtractor) Configured() bool {
	return g != nil && g.cfg.APIKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  map[string]any  `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"sref":    map[string]any{"type": "STRING", "description": "The --sref value, a string of numbers.", "nullable": true},
		"model":   map[string]any{"type": "STRING", "description": `The Midjourney model used, e.g. "Niji 6" or "MJ 6.0".`, "nullable": true},
		"seed":    map[string]any{"type": "INTEGER", "description": "The --seed value.", "nullable": true},
		"ar":      map[string]any{"type": "STRING", "description": `The --ar (aspect ratio) value, e.g. "16:9".`, "nullable": true},
		"chaos":   map[string]any{"type": "INTEGER", "description": "The --chaos value, from 0 to 100.", "nullable": true},
		"stylize": map[string]any{"type": "INTEGER", "description": "The --stylize value, from 0 to 1000.", "nullable": true},
		"weird":   map[string]any{"type": "INTEGER", "description": "The --weird value, from 0 to 3000.", "nullable": true},
		"tile":    map[string]any{"type": "BOOLEAN", "description": "Whether the --tile parameter is present.", "nullable": true},
		"version": map[string]any{"type": "STRING", "description": `The --v (version) value, e.g. "6.0".`, "nullable": true},
	},
}

type callResult struct {
	body []byte
	err  error
}

// Extract calls Gemini and decodes its JSON answer. The call is bounded by
// both the configured timeout and ctx.
func (g *GeminiExtractor) Extract(ctx context.Context, prompt string) (models.MidjourneyParams, error) {
	if !g.Configured() {
		return models.MidjourneyParams{}, ErrNotConfigured
	}

	span, ctx := observability.StartExternalCall(ctx, "gemini", "generateContent")
	defer span.End()
	span.AddAttributes(attribute.String("llm.model", g.cfg.Model))

	start := time.Now()
	params, err := g.extract(ctx, prompt)
	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, fasthttp.ErrTimeout):
		outcome = "timeout"
	case errors.Is(err, ErrMalformedResponse):
		outcome = "malformed"
	case err != nil:
		outcome = "error"
	}
	observability.LLMRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	span.SetError(err)
	return params, err
}

func (g *GeminiExtractor) extract(ctx context.Context, prompt string) (models.MidjourneyParams, error) {
	reqBody := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: fmt.Sprintf("Parse the following Midjourney prompt: %q", prompt)}},
		}},
		GenerationConfig: map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema,
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.Endpoint, g.cfg.Model)
	done := make(chan callResult, 1)
	go func() {
		agent := fiber.Post(url).
			Set("x-goog-api-key", g.cfg.APIKey).
			Timeout(g.cfg.Timeout).
			JSON(reqBody)
		if err := agent.Parse(); err != nil {
			done <- callResult{err: err}
			return
		}
		code, body, errs := agent.Bytes()
		switch {
		case len(errs) > 0:
			done <- callResult{err: errors.Join(errs...)}
		case code != fiber.StatusOK:
			done <- callResult{err: fmt.Errorf("gemini responded with status %d", code)}
		default:
			done <- callResult{body: body}
		}
	}()

	var res callResult
	select {
	case <-ctx.Done():
		return models.MidjourneyParams{}, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return models.MidjourneyParams{}, res.err
	}

	var decoded geminiResponse
	if err := json.Unmarshal(res.body, &decoded); err != nil {
		return models.MidjourneyParams{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return models.MidjourneyParams{}, fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}

	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```json"), "```")
	params, err := decodeParams([]byte(strings.TrimSpace(text)))
	if err != nil {
		return models.MidjourneyParams{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return params, nil
}
