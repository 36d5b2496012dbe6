// Package assistant produces AI-assisted campaign copy and advice. Every
// operation has a deterministic fallback used when no provider is
// configured or the provider's answer cannot be parsed.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/fundfox/fundfox/internal/pkg/env"
)

const defaultModel = "gemini-2.5-flash"

var ErrNoProvider = errors.New("no AI provider configured")

// Generator turns a prompt into a JSON text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenAIGenerator calls the Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, ErrNoProvider
	}
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// NewGeneratorFromEnv returns nil when GENAI_API_KEY is unset.
func NewGeneratorFromEnv(ctx context.Context) (Generator, error) {
	key := strings.TrimSpace(env.GetEnv("GENAI_API_KEY", ""))
	if key == "" {
		return nil, nil
	}
	return NewGenAIGenerator(ctx, key, env.GetEnv("GENAI_MODEL", defaultModel))
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("GenAI returned an empty answer")
	}
	return text, nil
}

// ExtractJSON pulls the first JSON object or array out of a model answer,
// tolerating markdown fences and surrounding prose.
func ExtractJSON(text string) (string, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	open, close := s[start], byte('}')
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
