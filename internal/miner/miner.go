// Package miner drives the end-to-end evidence workflow: parse assertions
// out of an examiner review, ask the generation endpoint for candidate
// quotations per assertion, verify every quotation against the segmented
// document, and aggregate the outcomes into one ExtractionResult.
//
// The miner is the only caller of the invoker and the verifier; the verifier
// never talks to the endpoint. Callers always get a well-formed result:
// everything that goes wrong mid-run lands in result.Errors.
package miner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/pmizuno/kensho/internal/extract"
	"github.com/pmizuno/kensho/internal/invoke"
	"github.com/pmizuno/kensho/internal/llm"
	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/segment"
	"github.com/pmizuno/kensho/internal/verify"
)

// Assertion counts above this suggest the model split hairs instead of
// extracting essential claims; typical reviews yield 2-5.
const assertionCountWarnLimit = 8

// Parsing confidence below this is flagged for manual review
const lowConfidenceLimit = 0.7

// Miner mines and verifies evidence for one (review, document) pair per Run
type Miner struct {
	invoker  *invoke.Invoker
	verifier *verify.Verifier
	prompts  PromptSet

	maxQuoteChars int
	workers       int

	logw io.Writer // Data-quality warnings; never alters control flow
}

// NewMiner creates a miner using cfg's verification and concurrency settings
func NewMiner(invoker *invoke.Invoker, cfg *model.Config) *Miner {
	workers := cfg.Concurrency.AssertionWorkers
	if workers <= 0 {
		workers = 1
	}
	maxChars := cfg.Verify.MaxQuoteChars
	if maxChars <= 0 {
		maxChars = 100
	}
	return &Miner{
		invoker:       invoker,
		verifier:      verify.NewVerifier(cfg.Verify.FuzzyThreshold),
		prompts:       DefaultPrompts(),
		maxQuoteChars: maxChars,
		workers:       workers,
		logw:          os.Stderr,
	}
}

// SetPrompts overrides the built-in prompt templates
func (m *Miner) SetPrompts(p PromptSet) { m.prompts = p }

// SetLogWriter redirects data-quality warnings (stderr by default)
func (m *Miner) SetLogWriter(w io.Writer) { m.logw = w }

func (m *Miner) warnf(format string, args ...any) {
	fmt.Fprintf(m.logw, "warning: "+format+"\n", args...)
}

// Run executes one complete mining run. It never returns an error: failures
// are recorded in the result. Only a failed review parse or cancellation
// aborts the run early; per-assertion failures are absorbed as not_found.
func (m *Miner) Run(ctx context.Context, reviewText string, doc model.Document) *model.ExtractionResult {
	result := &model.ExtractionResult{DocumentID: doc.DocID}

	segments, fullText := segment.Split(doc)
	if len(segments) == 0 {
		// Non-fatal: the run continues against an empty verification
		// universe and every citation comes back not_found.
		result.Errors = append(result.Errors, "segmentation produced no segments: document is empty or malformed")
	}

	if reviewText == "" {
		result.Errors = append(result.Errors, "no examiner review text provided")
		return result
	}

	list, err := m.parseReview(ctx, reviewText)
	if err != nil {
		// Run-fatal: without assertions there is nothing to verify
		result.Errors = append(result.Errors, fmt.Sprintf("parse examiner review: %v", err))
		return result
	}

	if n := len(list.Arguments); n > assertionCountWarnLimit {
		m.warnf("unusually high assertion count (%d), review for non-essential claims", n)
		result.Errors = append(result.Errors, fmt.Sprintf("quality warning: high assertion count (%d)", n))
	}
	if list.Confidence > 0 && list.Confidence < lowConfidenceLimit {
		m.warnf("low parsing confidence (%.2f), extracted assertions may need manual review", list.Confidence)
	}

	result.TotalAssertions = len(list.Arguments)
	result.Items = make([]model.EvidenceItem, len(list.Arguments))

	m.mineAll(ctx, list.Arguments, fullText, segments, result)

	if ctx.Err() != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("run cancelled: %v", ctx.Err()))
	}
	result.Tally()
	return result
}

// parseReview asks the endpoint (structured-output mode) to decompose the
// review into essential assertions
func (m *Miner) parseReview(ctx context.Context, reviewText string) (*extract.AssertionList, error) {
	raw, err := m.invoker.Invoke(ctx, llm.GenerateRequest{
		Prompt:   m.prompts.BuildParseReview(reviewText),
		System:   m.prompts.System,
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}
	return extract.DecodeAssertionList(raw)
}

// mineAll processes assertions with up to m.workers goroutines. Items land at
// their assertion's index, so result order is independent of completion
// order. Completed outcomes are kept on cancellation.
func (m *Miner) mineAll(ctx context.Context, assertions []model.Assertion, fullText string, segments []model.Segment, result *model.ExtractionResult) {
	var wg sync.WaitGroup
	var mu sync.Mutex // guards result.Errors
	sem := make(chan struct{}, m.workers)

	appendErrs := func(errs []string) {
		if len(errs) == 0 {
			return
		}
		mu.Lock()
		result.Errors = append(result.Errors, errs...)
		mu.Unlock()
	}

	for i, a := range assertions {
		wg.Add(1)
		go func(idx int, assertion model.Assertion) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				result.Items[idx] = model.EvidenceItem{
					Assertion: assertion,
					Status:    model.StatusNotFound,
					Reason:    "cancelled before processing",
				}
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			item, errs := m.mineAssertion(ctx, assertion, fullText, segments)
			result.Items[idx] = item
			appendErrs(errs)
		}(i, a)
	}

	wg.Wait()
}

// mineAssertion runs one free-form evidence call and verifies every proposed
// quotation. All failures are absorbed into a not_found item plus error
// strings; nothing here can abort the run.
func (m *Miner) mineAssertion(ctx context.Context, a model.Assertion, fullText string, segments []model.Segment) (model.EvidenceItem, []string) {
	item := model.EvidenceItem{Assertion: a, Status: model.StatusNotFound}

	raw, err := m.invoker.Invoke(ctx, llm.GenerateRequest{
		Prompt: m.prompts.BuildExtractEvidence(a.Assertion, fullText),
		System: m.prompts.System,
	})
	if err != nil {
		return item, []string{fmt.Sprintf("extract evidence for %q: %v", a.Assertion, err)}
	}

	item.Thinking = extract.ExtractThinking(raw)

	payload, err := extract.DecodeEvidencePayload(raw)
	if err != nil {
		return item, []string{fmt.Sprintf("decode evidence for %q: %v", a.Assertion, err)}
	}

	if !payload.Found {
		// The model reported no evidence; that is an answer, not an error,
		// and needs no verifier pass.
		item.Reason = payload.Reason
		if item.Reason == "" {
			item.Reason = "no matching description in document"
		}
		return item, nil
	}

	if len(payload.Evidence) == 0 {
		m.warnf("model reported found=true with no evidence for %q", a.Assertion)
		return item, nil
	}

	for _, ev := range payload.Evidence {
		charCount := ev.CharacterCount
		if charCount == 0 {
			charCount = utf8.RuneCountInString(ev.Quote)
		}
		if charCount > m.maxQuoteChars {
			m.warnf("quote length (%d chars) exceeds limit (%d): %.40q", charCount, m.maxQuoteChars, ev.Quote)
		}

		outcome := m.verifier.Verify(ev.Quote, segments)

		sourceID := ev.SourceID
		if outcome.Status == model.StatusVerified {
			sourceID = outcome.SegmentID
		}
		item.Citations = append(item.Citations, model.Citation{
			Quote:          ev.Quote,
			SourceID:       sourceID,
			CharacterCount: charCount,
			Proves:         ev.Proves,
			ContextBefore:  outcome.ContextBefore,
			ContextAfter:   outcome.ContextAfter,
			IsMinimal:      charCount <= m.maxQuoteChars,
		})
		item.Outcomes = append(item.Outcomes, outcome)
	}

	item.Status = model.Aggregate(item.Outcomes)
	return item, nil
}
