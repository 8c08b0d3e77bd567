package model

import "time"

// Config is the complete runtime configuration
type Config struct {
	Tables     TablesConfig     `yaml:"tables" mapstructure:"tables"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// TablesConfig points at the static definition files.
// Empty paths select the definitions embedded in the binary.
type TablesConfig struct {
	Schema string `yaml:"schema" mapstructure:"schema"`
	Rules  string `yaml:"rules" mapstructure:"rules"`
	Checks string `yaml:"checks" mapstructure:"checks"`
}

// LLMConfig selects and configures the language-understanding backend
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"` // openai, groq, openai-responses, anthropic, ollama, gemini
	Model       string  `yaml:"model" mapstructure:"model"`
	APIKey      string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     int     `yaml:"timeout" mapstructure:"timeout"` // seconds, HTTP client level
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy  string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy     string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"` // Overrides NO_PROXY
}

// ExtractionConfig bounds the per-request extraction call
type ExtractionConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig controls the optional extraction response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty disables the disk layer
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Outbound extraction calls
	BurstSize         int           `yaml:"burst_size" mapstructure:"burst_size"`
}

// BatchConfig configures batch processing of scenario files
type BatchConfig struct {
	Workers           int     `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     60,
			MaxTokens:   2000,
			Temperature: 0.1,
		},
		Extraction: ExtractionConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   false,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      90 * time.Second,
			MaxBodyBytes:      64 << 10,
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Batch: BatchConfig{
			Workers:           4,
			RequestsPerSecond: 1,
			BurstSize:         2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
