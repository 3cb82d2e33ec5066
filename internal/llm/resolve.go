package llm

import (
	"context"
	"os"
	"strings"
)

// ResolveProvider selects an LLM provider based on the model flag and
// available API keys. With no flag and no keys it falls back to a local
// Ollama server, which needs no credentials.
func ResolveProvider(modelFlag string) (Provider, error) {
	if modelFlag != "" {
		lower := strings.ToLower(modelFlag)
		switch {
		case strings.HasPrefix(lower, "anthropic:"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: strings.TrimPrefix(modelFlag, "anthropic:")}, nil

		case strings.HasPrefix(lower, "claude"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil

		case strings.HasPrefix(lower, "openai:"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: strings.TrimPrefix(modelFlag, "openai:")}, nil

		case strings.HasPrefix(lower, "gpt"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil

		case strings.HasPrefix(lower, "ollama:"):
			return &modelOverride{Provider: NewOllama(), model: strings.TrimPrefix(modelFlag, "ollama:")}, nil
		}
	}

	// Auto-detect from environment.
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		p, err := NewAnthropic()
		if err != nil {
			return nil, err
		}
		if modelFlag != "" {
			return &modelOverride{Provider: p, model: modelFlag}, nil
		}
		return p, nil
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		p, err := NewOpenAI()
		if err != nil {
			return nil, err
		}
		if modelFlag != "" {
			return &modelOverride{Provider: p, model: modelFlag}, nil
		}
		return p, nil
	}

	if modelFlag != "" {
		return &modelOverride{Provider: NewOllama(), model: modelFlag}, nil
	}
	return NewOllama(), nil
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
