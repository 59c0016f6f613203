// Package promptparse extracts Midjourney parameters from free-text prompts.
// An LLM is consulted when available; a local grammar always backs it up.
package promptparse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"srefhub/internal/featureflags"
	"srefhub/internal/models"
	"srefhub/internal/observability"
)

// Extraction methods reported to clients.
const (
	MethodGemini   = "gemini"
	MethodFallback = "fallback"
)

// Extractor is an LLM-backed parameter source.
type Extractor interface {
	Configured() bool
	Extract(ctx context.Context, prompt string) (models.MidjourneyParams, error)
}

// FlagSource evaluates feature flags per user.
type FlagSource interface {
	Enabled(name string, userID uint) bool
}

// Result is what a parse returns to the caller.
type Result struct {
	Params  models.MidjourneyParams `json:"params"`
	Method  string                  `json:"method"`
	Warning string                  `json:"warning,omitempty"`
}

// Parser chooses between the LLM and the fallback grammar.
type Parser struct {
	extractor Extractor
	flags     FlagSource
	timeout   time.Duration
	logger    *slog.Logger
}

// NewParser builds a Parser. extractor and flags may be nil.
func NewParser(extractor Extractor, flags FlagSource, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Parser{extractor: extractor, flags: flags, timeout: timeout, logger: slog.Default()}
}

// Parse never fails: when the LLM cannot answer in time or answers with
// garbage, the fallback grammar result is returned with a warning.
func (p *Parser) Parse(ctx context.Context, prompt string, userID uint) Result {
	if !p.llmEnabled(userID) {
		return p.fallback(prompt, "")
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params, err := p.extractor.Extract(callCtx, prompt)
	if err != nil {
		warning := "LLM request failed, using fallback parser"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			warning = "LLM request timed out, using fallback parser"
		case errors.Is(err, ErrMalformedResponse):
			warning = "LLM returned an invalid response, using fallback parser"
		}
		p.logger.WarnContext(ctx, "prompt extraction fell back", "user_id", userID, "error", err)
		return p.fallback(prompt, warning)
	}

	params.Raw = prompt
	observability.PromptParseTotal.WithLabelValues(MethodGemini).Inc()
	return Result{Params: params, Method: MethodGemini}
}

func (p *Parser) llmEnabled(userID uint) bool {
	if p.extractor == nil || !p.extractor.Configured() {
		return false
	}
	if p.flags == nil {
		return true
	}
	return p.flags.Enabled(featureflags.LLMPromptParsing, userID)
}

func (p *Parser) fallback(prompt, warning string) Result {
	observability.PromptParseTotal.WithLabelValues(MethodFallback).Inc()
	return Result{Params: Fallback(prompt), Method: MethodFallback, Warning: warning}
}
