package llm

import (
	"context"
	"os"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete runs one completion and returns the raw text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one completion
type CompletionRequest struct {
	// System is the fixed instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature overrides the configured temperature when > 0
	Temperature float64

	// JSON asks the provider to constrain output to a JSON object
	JSON bool
}

// CompletionResponse contains the provider output
type CompletionResponse struct {
	// Text is the raw completion
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "groq", "openai-responses", "anthropic", "ollama", "gemini"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultTemperature keeps extraction close to deterministic
const DefaultTemperature = 0.1

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Timeout:     60,
		MaxTokens:   2000,
		Temperature: DefaultTemperature,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
// A missing API key is taken from the provider's environment variable.
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	cfg := Config{
		Provider:    modelConfig.Provider,
		Model:       modelConfig.Model,
		APIKey:      modelConfig.APIKey,
		BaseURL:     modelConfig.BaseURL,
		Timeout:     modelConfig.Timeout,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		HTTPProxy:   modelConfig.HTTPProxy,
		HTTPSProxy:  modelConfig.HTTPSProxy,
		NoProxy:     modelConfig.NoProxy,
	}
	if cfg.APIKey == "" {
		cfg.APIKey = APIKeyFromEnv(cfg.Provider)
	}
	if cfg.BaseURL == "" && strings.EqualFold(cfg.Provider, "ollama") {
		cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg
}

// APIKeyFromEnv returns the first non-empty key variable for provider
func APIKeyFromEnv(provider string) string {
	for _, name := range apiKeyEnv[strings.ToLower(provider)] {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

var apiKeyEnv = map[string][]string{
	"openai":           {"OPENAI_API_KEY"},
	"openai-responses": {"OPENAI_API_KEY"},
	"groq":             {"GROQ_API_KEY"},
	"anthropic":        {"ANTHROPIC_API_KEY"},
	"claude":           {"ANTHROPIC_API_KEY"},
	"gemini":           {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// resolve fills request fields from config defaults
func (c Config) resolve(req CompletionRequest, defaultModel string) (model string, maxTokens int, temperature float64) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	temperature = req.Temperature
	if temperature <= 0 {
		temperature = c.Temperature
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return model, maxTokens, temperature
}
