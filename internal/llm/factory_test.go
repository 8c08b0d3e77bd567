package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "openai"},
		{"OpenAI", "openai"},
		{"groq", "groq"},
		{"openai-responses", "openai-responses"},
		{"anthropic", "anthropic"},
		{"claude", "anthropic"},
		{"ollama", "ollama"},
		{"gemini", "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, APIKey: "k", Model: "m"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestNewProvider_Errors(t *testing.T) {
	_, err := NewProvider(Config{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")

	_, err = NewProvider(Config{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "groq"), "error should list supported providers")
}

func TestConfigFromModel_KeyFromEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-env")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-env")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "groq", Temperature: 0.2})
	assert.Equal(t, "gsk-env", cfg.APIKey)
	assert.Equal(t, 0.2, cfg.Temperature)

	cfg = ConfigFromModel(model.LLMConfig{Provider: "groq", APIKey: "explicit"})
	assert.Equal(t, "explicit", cfg.APIKey)

	cfg = ConfigFromModel(model.LLMConfig{Provider: "gemini"})
	assert.Equal(t, "google-env", cfg.APIKey)

	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	cfg = ConfigFromModel(model.LLMConfig{Provider: "ollama"})
	assert.Equal(t, "http://gpu-box:11434", cfg.BaseURL)

	cfg = ConfigFromModel(model.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434"})
	assert.Equal(t, "http://localhost:11434", cfg.BaseURL)
}

func TestConfigResolve(t *testing.T) {
	cfg := Config{Model: "configured", MaxTokens: 500}

	m, maxTokens, temp := cfg.resolve(CompletionRequest{}, "fallback")
	assert.Equal(t, "configured", m)
	assert.Equal(t, 500, maxTokens)
	assert.Equal(t, DefaultTemperature, temp)

	m, maxTokens, temp = cfg.resolve(CompletionRequest{Model: "req", MaxTokens: 10, Temperature: 0.7}, "fallback")
	assert.Equal(t, "req", m)
	assert.Equal(t, 10, maxTokens)
	assert.Equal(t, 0.7, temp)

	m, _, _ = Config{}.resolve(CompletionRequest{}, "fallback")
	assert.Equal(t, "fallback", m)
}
