package service

import (
	"context"

	"srefhub/internal/models"
	"srefhub/internal/promptparse"
	"srefhub/internal/validation"
)

// PromptParser extracts Midjourney parameters from free text.
type PromptParser interface {
	Parse(ctx context.Context, prompt string, userID uint) promptparse.Result
}

type PromptService struct {
	parser PromptParser
}

func NewPromptService(parser PromptParser) *PromptService {
	return &PromptService{parser: parser}
}

// Parse validates the prompt and never fails once it is accepted: LLM
// problems degrade to the fallback parser with a warning.
func (s *PromptService) Parse(ctx context.Context, userID uint, prompt string) (*promptparse.Result, error) {
	if err := validation.ValidatePrompt(prompt); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	var result promptparse.Result
	if s.parser == nil {
		result = promptparse.Result{Params: promptparse.Fallback(prompt), Method: promptparse.MethodFallback}
	} else {
		result = s.parser.Parse(ctx, prompt, userID)
	}
	result.Params.Raw = prompt
	return &result, nil
}
