package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pmizuno/kensho/internal/model"
)

func TestFailureKind_Retryable(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want bool
	}{
		{FailureFatal, false},
		{FailureRateLimited, true},
		{FailureTransient, true},
		{FailureEmpty, true},
	}
	for _, tt := range tests {
		if got := tt.kind.Retryable(); got != tt.want {
			t.Errorf("%s.Retryable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	rateLimit := &CallError{Kind: FailureRateLimited, Provider: "p", Err: errors.New("429")}

	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"call error", rateLimit, FailureRateLimited},
		{"wrapped call error", fmt.Errorf("outer: %w", rateLimit), FailureRateLimited},
		{"deadline", context.DeadlineExceeded, FailureTransient},
		{"unknown", errors.New("mystery"), FailureFatal},
		{"nil-ish plain error", errors.New(""), FailureFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCallError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &CallError{Kind: FailureTransient, Provider: "p", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("CallError does not unwrap to its cause")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		apiKey   string
		wantName string
		wantErr  bool
	}{
		{"openai", "openai", "k", "openai", false},
		{"anthropic", "anthropic", "k", "anthropic", false},
		{"claude alias", "claude", "k", "anthropic", false},
		{"ollama", "ollama", "", "ollama", false},
		{"case insensitive", "OpenAI", "k", "openai", false},
		{"unconfigured", "", "", "", true},
		{"unknown", "bard", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, APIKey: tt.apiKey})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("name = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	got := ConfigFromModel(model.LLMConfig{
		Provider: "ollama",
		Model:    "qwen2.5",
		BaseURL:  "http://localhost:11434",
		Timeout:  30,
	})
	if got.Provider != "ollama" || got.Model != "qwen2.5" || got.Timeout != 30 {
		t.Errorf("ConfigFromModel = %+v", got)
	}
}
