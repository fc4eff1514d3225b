package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mystrymsg/internal/validation"
)

const DefaultSuggestionPrompt = "Create a list of three open-ended and engaging questions formatted as a single string. " +
	"Each question should be separated by '||'. These questions are for an anonymous social messaging platform, " +
	"like Qooh.me, and should be suitable for a diverse audience. Avoid personal or sensitive topics, focusing " +
	"instead on universal themes that encourage friendly interaction. For example, your output should be " +
	"structured like this: 'What's a hobby you've recently started?||If you could have dinner with any historical " +
	"figure, who would it be?||What's a simple thing that makes you happy?'. Ensure the questions are intriguing, " +
	"foster curiosity, and contribute to a positive and welcoming conversational environment."

// TextGenerator is the generative-language provider (Gemini in production).
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Suggestions struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

type SuggestionService interface {
	Suggest(ctx context.Context, prompt string) (*Suggestions, error)
}

type suggestionService struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewSuggestionService(generator TextGenerator, logger *slog.Logger) SuggestionService {
	return &suggestionService{generator: generator, logger: logger}
}

func (s *suggestionService) Suggest(ctx context.Context, prompt string) (*Suggestions, error) {
	prompt = strings.TrimSpace(prompt)
	if err := validation.ValidatePrompt(prompt); err != nil {
		return nil, invalid(err)
	}
	if prompt == "" {
		prompt = DefaultSuggestionPrompt
	}

	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "suggestion provider failed", "err", err)
		return nil, fmt.Errorf("%w: suggestion provider unavailable", ErrDependency)
	}

	return &Suggestions{Text: text, Suggestions: SplitSuggestions(text)}, nil
}

// SplitSuggestions splits provider output on "||", dropping blank entries.
func SplitSuggestions(text string) []string {
	out := make([]string, 0, 3)
	for _, part := range strings.Split(text, "||") {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
