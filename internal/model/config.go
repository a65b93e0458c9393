package model

import "time"

// Config is the complete kensho configuration. Everything is explicit: no
// component reads the process environment on its own, the CLI resolves env
// vars and flags into this struct and passes it down.
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Retry       RetryConfig       `yaml:"retry"`
	Verify      VerifyConfig      `yaml:"verify"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Rate        RateConfig        `yaml:"rate"`
	Cache       CacheConfig       `yaml:"cache"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig selects and configures the generation endpoint
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai", "anthropic", "ollama"
	Model     string `yaml:"model"`    // Provider-specific model name
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // Seconds per request
	MaxTokens int    `yaml:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// RetryConfig bounds the resilient invocation layer
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // Total attempts per call
	BackoffBase time.Duration `yaml:"backoff_base"` // First retry delay
	Multiplier  float64       `yaml:"multiplier"`   // Delay growth per attempt
}

// VerifyConfig tunes quote verification. The defaults are empirical: 0.85
// fuzzy overlap and 100-character quotes come from production tuning, not a
// derivation, so both stay configurable.
type VerifyConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	MaxQuoteChars  int     `yaml:"max_quote_chars"` // Above this a quote is no longer "minimal"
}

// ConcurrencyConfig bounds worker counts
type ConcurrencyConfig struct {
	AssertionWorkers int `yaml:"assertion_workers"` // Per-run concurrent assertion mining
	BatchWorkers     int `yaml:"batch_workers"`     // Concurrent documents in batch mode
}

// RateConfig paces calls to the generation endpoint across all workers
type RateConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig controls the layered response cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// OutputConfig controls reporting
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   60,
			MaxTokens: 4096,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: 1 * time.Second,
			Multiplier:  4,
		},
		Verify: VerifyConfig{
			FuzzyThreshold: 0.85,
			MaxQuoteChars:  100,
		},
		Concurrency: ConcurrencyConfig{
			AssertionWorkers: 1,
			BatchWorkers:     4,
		},
		Rate: RateConfig{
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     24 * time.Hour,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
