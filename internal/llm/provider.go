// Package llm abstracts text-generation endpoints behind a single Provider
// interface. Failures carry an explicit classification instead of relying on
// error-type inspection at call sites: the retry layer switches on the kind,
// nothing else.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies a generation failure
type FailureKind int

const (
	FailureFatal       FailureKind = iota // Bad request, auth, unknown: never retry
	FailureRateLimited                    // Resource exhaustion / 429: retry with shared backoff
	FailureTransient                      // Server error, timeout, connection reset: retry
	FailureEmpty                          // Endpoint answered but returned no text: retry
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureTransient:
		return "transient"
	case FailureEmpty:
		return "empty_response"
	default:
		return "fatal"
	}
}

// Retryable reports whether a failure of this kind is worth another attempt
func (k FailureKind) Retryable() bool {
	return k == FailureRateLimited || k == FailureTransient || k == FailureEmpty
}

// CallError is a classified generation failure
type CallError struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *CallError) Unwrap() error { return e.Err }

// Classify returns the failure kind of an error. Unclassified errors are
// fatal: retrying an unknown failure is how rate limits get tripped harder.
func Classify(err error) FailureKind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTransient
	}
	return FailureFatal
}

// GenerateRequest is a single prompt-in, text-out generation request
type GenerateRequest struct {
	Prompt    string
	System    string // System instruction, provider-dependent
	JSONMode  bool   // Ask the endpoint for structured (JSON) output
	Model     string // Override the configured model for this call
	MaxTokens int
}

// GenerateResponse is the raw endpoint answer
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Provider is a text-generation endpoint. Implementations wrap all failures
// in *CallError so the invocation layer can classify them.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model used when a request does not override it.
	// Response caching keys on it, so it must reflect the effective default.
	Model() string

	// Generate runs one prompt against the endpoint
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds provider configuration. Constructed explicitly by the caller;
// providers never read the process environment.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 4096,
	}
}
