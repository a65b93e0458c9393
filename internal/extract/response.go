// Package extract recovers structured data from free-form model output.
// Generation endpoints are not contractually clean even in JSON mode, so a
// cascade of progressively more forgiving strategies is tried in order.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no strategy could recover a JSON object
var ErrNoJSON = errors.New("no JSON object found in response")

var (
	fenceRe    = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	thinkingRe = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	// Brace-balanced to one nesting level; deeper objects are caught by the
	// first-to-last-brace strategy before this one runs.
	braceObjectRe = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
)

// ExtractJSON recovers a single JSON object from raw model output. Strategies
// are tried in order, first full parse wins, individual strategy failures are
// swallowed:
//
//  1. a ```json fenced block
//  2. the substring from the first '{' to the last '}'
//  3. strip any <thinking> region, then a brace-balanced regex search
//  4. the raw text as-is
//
// A partial or ambiguous candidate is rejected rather than guessed at; if
// every strategy fails the error is ErrNoJSON.
func ExtractJSON(raw string) (json.RawMessage, error) {
	strategies := []func(string) (json.RawMessage, bool){
		fromFencedBlock,
		fromOuterBraces,
		fromBalancedSearch,
		fromRawText,
	}
	for _, strategy := range strategies {
		if obj, ok := strategy(raw); ok {
			return obj, nil
		}
	}
	return nil, ErrNoJSON
}

// ExtractThinking returns the contents of a <thinking> region, trimmed, or ""
func ExtractThinking(raw string) string {
	if m := thinkingRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// StripThinking removes any <thinking> region from the text
func StripThinking(raw string) string {
	return thinkingRe.ReplaceAllString(raw, "")
}

func fromFencedBlock(raw string) (json.RawMessage, bool) {
	m := fenceRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return asObject(m[1])
}

func fromOuterBraces(raw string) (json.RawMessage, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return asObject(raw[start : end+1])
}

func fromBalancedSearch(raw string) (json.RawMessage, bool) {
	m := braceObjectRe.FindString(StripThinking(raw))
	if m == "" {
		return nil, false
	}
	return asObject(m)
}

func fromRawText(raw string) (json.RawMessage, bool) {
	return asObject(raw)
}

// asObject accepts a candidate only if it parses completely as a JSON object
func asObject(candidate string) (json.RawMessage, bool) {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") {
		return nil, false
	}
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
