package miner

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pmizuno/kensho/internal/invoke"
	"github.com/pmizuno/kensho/internal/llm"
	"github.com/pmizuno/kensho/internal/model"
)

// routeProvider dispatches canned responses: structured-output requests get
// the assertion list, free-form requests are routed by prompt content
type routeProvider struct {
	parseResponse string
	evidence      map[string]string // assertion text fragment -> response
	onEvidence    func()            // called before answering an evidence request
}

func (p *routeProvider) Name() string                         { return "route" }
func (p *routeProvider) Model() string                        { return "route-model" }
func (p *routeProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *routeProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req.JSONMode {
		return &llm.GenerateResponse{Text: p.parseResponse}, nil
	}
	if p.onEvidence != nil {
		p.onEvidence()
	}
	for fragment, resp := range p.evidence {
		if strings.Contains(req.Prompt, fragment) {
			return &llm.GenerateResponse{Text: resp}, nil
		}
	}
	return nil, &llm.CallError{Kind: llm.FailureFatal, Provider: "route", Err: fmt.Errorf("no route for prompt")}
}

func newTestMiner(p llm.Provider) *Miner {
	cfg := model.DefaultConfig()
	inv := invoke.NewInvoker(p, model.RetryConfig{MaxAttempts: 1}, nil)
	m := NewMiner(inv, cfg)
	m.SetLogWriter(io.Discard)
	return m
}

func testDoc() model.Document {
	return model.Document{
		DocID: "JP2020-123456",
		Sections: []model.DocSection{
			{Name: "background", Paragraphs: []string{
				"The device includes a battery and a heater.",
				"The heater is mounted above the battery.",
			}},
		},
	}
}

func assertionList(assertions ...string) string {
	var items []string
	for i, a := range assertions {
		items = append(items, fmt.Sprintf(
			`{"id": "arg_%03d", "claim_scope": "claim %d", "assertion": %q, "rationale": "essential"}`,
			i+1, i+1, a))
	}
	return fmt.Sprintf(`{"arguments": [%s], "total_count": %d, "confidence": 0.95}`,
		strings.Join(items, ","), len(assertions))
}

func foundEvidence(quote, sourceID string) string {
	return fmt.Sprintf("<thinking>段落を確認した。</thinking>\n```json\n"+
		`{"found": true, "evidence": [{"quote": %q, "source_id": %q, "proves": "the claimed feature"}]}`+
		"\n```", quote, sourceID)
}

func TestRun_VerifiedQuote(t *testing.T) {
	p := &routeProvider{
		parseResponse: assertionList("the prior art discloses a battery"),
		evidence: map[string]string{
			"discloses a battery": foundEvidence("The device includes a battery and a heater.", "[0001]"),
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.DocumentID != "JP2020-123456" {
		t.Errorf("document id = %q", result.DocumentID)
	}
	if result.TotalAssertions != 1 || result.VerifiedCount != 1 {
		t.Fatalf("counts: total=%d verified=%d", result.TotalAssertions, result.VerifiedCount)
	}

	item := result.Items[0]
	if item.Status != model.StatusVerified {
		t.Fatalf("status = %s", item.Status)
	}
	if item.Thinking != "段落を確認した。" {
		t.Errorf("thinking = %q", item.Thinking)
	}
	if len(item.Citations) != 1 {
		t.Fatalf("citations = %d", len(item.Citations))
	}

	// The resolved segment id replaces the model-declared one
	cit := item.Citations[0]
	if cit.SourceID != "[background_0000]" {
		t.Errorf("source id = %q, want resolved [background_0000]", cit.SourceID)
	}
	if cit.ContextAfter != "The heater is mounted above the battery." {
		t.Errorf("context after = %q", cit.ContextAfter)
	}
	if !cit.IsMinimal {
		t.Error("short quote should be minimal")
	}
	if cit.CharacterCount == 0 {
		t.Error("character count not derived from the quote")
	}
}

func TestRun_TruncatedQuoteNeverVerified(t *testing.T) {
	p := &routeProvider{
		parseResponse: assertionList("the prior art discloses a battery"),
		evidence: map[string]string{
			"discloses a battery": foundEvidence("a battery and a heate", "[0001]"),
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if result.VerifiedCount != 0 {
		t.Fatalf("truncated quote verified: %+v", result.Items)
	}
	item := result.Items[0]
	if item.Status == model.StatusVerified {
		t.Fatal("item must not be verified")
	}
	// Unverified: the declared source id is kept as-is
	if item.Citations[0].SourceID != "[0001]" {
		t.Errorf("source id = %q, want declared [0001]", item.Citations[0].SourceID)
	}
}

func TestRun_FoundFalse(t *testing.T) {
	p := &routeProvider{
		parseResponse: assertionList("an unsupported assertion"),
		evidence: map[string]string{
			"unsupported": `{"found": false, "reason": "該当する記載がない", "searched_sections": ["[background_0000]"]}`,
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if len(result.Errors) != 0 {
		t.Fatalf("found=false is an answer, not an error: %v", result.Errors)
	}
	item := result.Items[0]
	if item.Status != model.StatusNotFound {
		t.Errorf("status = %s", item.Status)
	}
	if item.Reason != "該当する記載がない" {
		t.Errorf("reason = %q", item.Reason)
	}
	if len(item.Citations) != 0 {
		t.Errorf("citations = %v", item.Citations)
	}
	if result.NotFoundCount != 1 {
		t.Errorf("notFoundCount = %d", result.NotFoundCount)
	}
}

func TestRun_MixedOutcomesAggregateToPartial(t *testing.T) {
	quotes := `<thinking>x</thinking>` + "```json\n" + `{"found": true, "evidence": [
  {"quote": "The device includes a battery and a heater.", "source_id": "[0001]"},
  {"quote": "completely absent wording", "source_id": "[0002]"}
]}` + "\n```"
	p := &routeProvider{
		parseResponse: assertionList("battery plus something unsupported"),
		evidence:      map[string]string{"battery plus": quotes},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	item := result.Items[0]
	if item.Status != model.StatusPartialMatch {
		t.Fatalf("status = %s, want partial_match for mixed outcomes", item.Status)
	}
	if result.PartialCount != 1 {
		t.Errorf("partialCount = %d", result.PartialCount)
	}
	if len(item.Outcomes) != 2 {
		t.Fatalf("outcomes = %d", len(item.Outcomes))
	}
	if item.Outcomes[0].Status != model.StatusVerified {
		t.Errorf("first outcome = %s", item.Outcomes[0].Status)
	}
	if item.Outcomes[1].Status != model.StatusNotFound {
		t.Errorf("second outcome = %s", item.Outcomes[1].Status)
	}
}

func TestRun_ParseFailureIsFatal(t *testing.T) {
	p := &routeProvider{parseResponse: "not json at all"}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if len(result.Errors) == 0 {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(result.Errors[0], "parse examiner review") {
		t.Errorf("error = %q", result.Errors[0])
	}
	if result.TotalAssertions != 0 || len(result.Items) != 0 {
		t.Errorf("run continued past fatal parse failure: %+v", result)
	}
}

func TestRun_EmptyReview(t *testing.T) {
	p := &routeProvider{}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "", testDoc())

	if len(result.Errors) == 0 {
		t.Fatal("expected error for empty review")
	}
	if !strings.Contains(result.Errors[0], "review") {
		t.Errorf("error = %q", result.Errors[0])
	}
}

func TestRun_EmptyDocumentContinues(t *testing.T) {
	p := &routeProvider{
		parseResponse: assertionList("some assertion"),
		evidence: map[string]string{
			"some assertion": foundEvidence("any quote at all", "[0001]"),
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", model.Document{DocID: "empty"})

	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "no segments") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing segmentation error: %v", result.Errors)
	}
	// The run proceeds; with nothing to verify against every citation fails
	if len(result.Items) != 1 {
		t.Fatalf("items = %d", len(result.Items))
	}
	if result.Items[0].Status == model.StatusVerified {
		t.Error("verification against an empty document must not succeed")
	}
}

func TestRun_PerAssertionFailureAbsorbed(t *testing.T) {
	// The second assertion has no canned response, so its evidence call fails
	p := &routeProvider{
		parseResponse: assertionList("a healthy assertion", "a failing assertion"),
		evidence: map[string]string{
			"a healthy assertion": foundEvidence("The device includes a battery and a heater.", "[0001]"),
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if result.VerifiedCount != 1 {
		t.Errorf("verifiedCount = %d, healthy assertion should still verify", result.VerifiedCount)
	}
	if result.Items[1].Status != model.StatusNotFound {
		t.Errorf("failed assertion status = %s", result.Items[1].Status)
	}
	failLogged := false
	for _, e := range result.Errors {
		if strings.Contains(e, "a failing assertion") {
			failLogged = true
		}
	}
	if !failLogged {
		t.Errorf("per-assertion failure not recorded: %v", result.Errors)
	}
}

func TestRun_HighAssertionCountWarning(t *testing.T) {
	assertions := make([]string, 9)
	evidence := make(map[string]string, 9)
	for i := range assertions {
		assertions[i] = fmt.Sprintf("assertion number %d here", i)
		evidence[assertions[i]] = `{"found": false, "reason": "none"}`
	}
	p := &routeProvider{parseResponse: assertionList(assertions...), evidence: evidence}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	warned := false
	for _, e := range result.Errors {
		if strings.Contains(e, "high assertion count") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("missing quality warning for 9 assertions: %v", result.Errors)
	}
	// A quality warning never drops work
	if len(result.Items) != 9 {
		t.Errorf("items = %d, want 9", len(result.Items))
	}
}

func TestRun_OrderPreservedWithWorkers(t *testing.T) {
	assertions := make([]string, 6)
	evidence := make(map[string]string, 6)
	for i := range assertions {
		assertions[i] = fmt.Sprintf("distinct claim %d goes here", i)
		evidence[assertions[i]] = fmt.Sprintf(`{"found": false, "reason": "reason %d"}`, i)
	}
	p := &routeProvider{parseResponse: assertionList(assertions...), evidence: evidence}

	cfg := model.DefaultConfig()
	cfg.Concurrency.AssertionWorkers = 4
	inv := invoke.NewInvoker(p, model.RetryConfig{MaxAttempts: 1}, nil)
	m := NewMiner(inv, cfg)
	m.SetLogWriter(io.Discard)

	result := m.Run(context.Background(), "review text", testDoc())

	if len(result.Items) != 6 {
		t.Fatalf("items = %d", len(result.Items))
	}
	for i, item := range result.Items {
		wantID := fmt.Sprintf("arg_%03d", i+1)
		if item.Assertion.ID != wantID {
			t.Errorf("item[%d].Assertion.ID = %q, want %q", i, item.Assertion.ID, wantID)
		}
		wantReason := fmt.Sprintf("reason %d", i)
		if item.Reason != wantReason {
			t.Errorf("item[%d].Reason = %q, want %q", i, item.Reason, wantReason)
		}
	}
}

func TestRun_CancellationRecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &routeProvider{
		parseResponse: assertionList("first assertion text", "second assertion text"),
		evidence: map[string]string{
			"first assertion":  `{"found": false, "reason": "none"}`,
			"second assertion": `{"found": false, "reason": "none"}`,
		},
		onEvidence: cancel,
	}
	m := newTestMiner(p)

	result := m.Run(ctx, "review text", testDoc())

	cancelled := false
	for _, e := range result.Errors {
		if strings.Contains(e, "run cancelled") {
			cancelled = true
		}
	}
	if !cancelled {
		t.Errorf("cancellation not recorded: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Errorf("items = %d, completed work must be kept", len(result.Items))
	}
}

func TestRun_Tally(t *testing.T) {
	p := &routeProvider{
		parseResponse: assertionList("the prior art discloses a battery"),
		evidence: map[string]string{
			"discloses a battery": foundEvidence("The device includes a battery and a heater.", "[0001]"),
		},
	}
	m := newTestMiner(p)

	result := m.Run(context.Background(), "review text", testDoc())

	if got := result.VerifiedCount + result.PartialCount + result.NotFoundCount; got != result.TotalAssertions {
		t.Errorf("tally %d does not cover %d assertions", got, result.TotalAssertions)
	}
}
