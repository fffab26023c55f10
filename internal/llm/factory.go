package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// New creates a verifier for the configured provider. An empty
// provider name returns (nil, nil): verification falls back to the
// pipeline's heuristic path.
func New(config Config) (Verifier, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		v, err := NewOpenAIVerifier(config)
		if err != nil {
			return nil, err
		}
		return v, nil

	case "anthropic", "claude":
		v, err := NewAnthropicVerifier(config)
		if err != nil {
			return nil, err
		}
		return v, nil

	case "ollama":
		v, err := NewOllamaVerifier(config)
		if err != nil {
			return nil, err
		}
		return v, nil

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application LLM configuration.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}
