// Package invoke wraps a generation provider with bounded retries and
// explicit failure classification. Only rate limits, transient server
// failures and empty responses are retried; anything else surfaces
// immediately. The backoff schedule is exponential with a configurable
// multiplier, and rate-limit trips are propagated through a shared throttle
// so concurrent workers back off together.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pmizuno/kensho/internal/cache"
	"github.com/pmizuno/kensho/internal/llm"
	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/worker"
)

// Failure is a terminal invocation failure: either a fatal first-attempt
// error or retryable errors that exhausted the attempt budget
type Failure struct {
	Kind      llm.FailureKind
	Attempts  int
	Exhausted bool
	Err       error
}

func (f *Failure) Error() string {
	if f.Exhausted {
		return fmt.Sprintf("invocation exhausted after %d attempts (%s): %v", f.Attempts, f.Kind, f.Err)
	}
	return fmt.Sprintf("invocation failed (%s): %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// IsExhausted reports whether err is a retry-budget exhaustion
func IsExhausted(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f.Exhausted
}

// Invoker calls a provider with bounded retries
type Invoker struct {
	provider llm.Provider
	retry    model.RetryConfig
	throttle *worker.Throttle

	cache    cache.Cache
	cacheTTL time.Duration

	// Injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker creates an invoker. throttle may be nil when pacing is not
// needed (single-shot CLI use without concurrency).
func NewInvoker(provider llm.Provider, retry model.RetryConfig, throttle *worker.Throttle) *Invoker {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 3
	}
	if retry.BackoffBase <= 0 {
		retry.BackoffBase = 1 * time.Second
	}
	if retry.Multiplier <= 0 {
		retry.Multiplier = 4
	}
	return &Invoker{
		provider: provider,
		retry:    retry,
		throttle: throttle,
		sleep:    sleepCtx,
	}
}

// WithCache enables response memoization
func (iv *Invoker) WithCache(c cache.Cache, ttl time.Duration) *Invoker {
	iv.cache = c
	iv.cacheTTL = ttl
	return iv
}

// Provider returns the wrapped provider
func (iv *Invoker) Provider() llm.Provider { return iv.provider }

// Invoke runs one generation request, retrying retryable failures with
// exponential backoff until the attempt budget runs out. The returned error,
// when non-nil, is always a *Failure.
func (iv *Invoker) Invoke(ctx context.Context, req llm.GenerateRequest) (string, error) {
	// Key on the model that will actually serve the request, not the
	// per-request override alone, or runs against differently configured
	// providers would share entries.
	model := req.Model
	if model == "" {
		model = iv.provider.Model()
	}
	key := cache.ResponseKey(iv.provider.Name(), model, req.JSONMode, req.System+"\x00"+req.Prompt)
	if iv.cache != nil {
		if data, found := iv.cache.Get(key); found {
			return string(data), nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < iv.retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &Failure{Kind: llm.FailureTransient, Attempts: attempt, Err: err}
		}
		if iv.throttle != nil {
			if err := iv.throttle.Wait(ctx); err != nil {
				return "", &Failure{Kind: llm.FailureTransient, Attempts: attempt, Err: err}
			}
		}

		resp, err := iv.provider.Generate(ctx, req)
		if err == nil {
			if iv.cache != nil {
				_ = iv.cache.Set(key, []byte(resp.Text), iv.cacheTTL)
			}
			return resp.Text, nil
		}

		kind := llm.Classify(err)
		if !kind.Retryable() {
			return "", &Failure{Kind: kind, Attempts: attempt + 1, Err: err}
		}
		lastErr = err

		if attempt < iv.retry.MaxAttempts-1 {
			delay := iv.backoff(attempt)
			if kind == llm.FailureRateLimited && iv.throttle != nil {
				// One tripped worker quiets all of them
				iv.throttle.Hold(delay)
			}
			if err := iv.sleep(ctx, delay); err != nil {
				return "", &Failure{Kind: llm.FailureTransient, Attempts: attempt + 1, Err: err}
			}
		}
	}

	return "", &Failure{
		Kind:      llm.Classify(lastErr),
		Attempts:  iv.retry.MaxAttempts,
		Exhausted: true,
		Err:       lastErr,
	}
}

// backoff returns base × multiplier^attempt
func (iv *Invoker) backoff(attempt int) time.Duration {
	d := float64(iv.retry.BackoffBase)
	for i := 0; i < attempt; i++ {
		d *= iv.retry.Multiplier
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
