// Package cache memoizes generation-endpoint responses so that re-running a
// document does not re-spend tokens on identical prompts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResponseKey derives a stable cache key for a generation request. The key
// covers everything that changes the response: provider, model, output mode
// and the full prompt text.
func ResponseKey(provider, model string, jsonMode bool, prompt string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%t\x00", provider, model, jsonMode)
	h.Write([]byte(prompt))
	return "kensho:v1:" + hex.EncodeToString(h.Sum(nil))
}
