package llm

import (
	"fmt"
	"strings"
)

// Providers lists the names NewProvider accepts
var Providers = []string{"openai", "groq", "openai-responses", "anthropic", "ollama", "gemini"}

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "groq":
		return NewGroqProvider(config)

	case "openai-responses", "responses":
		return NewResponsesProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: %s)", strings.Join(Providers, ", "))

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: %s)", config.Provider, strings.Join(Providers, ", "))
	}
}
