package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/score"
)

// Report is the persisted shape of a finished run: the raw extraction result
// plus a summary block and the diagnostic score
type Report struct {
	Document string                  `json:"document"`
	Summary  Summary                 `json:"summary"`
	Score    score.Score             `json:"score"`
	Result   *model.ExtractionResult `json:"result"`
}

// Summary mirrors the counters in a shape convenient for quick reading
type Summary struct {
	TotalAssertions  int    `json:"total_assertions"`
	Verified         int    `json:"verified"`
	PartialMatch     int    `json:"partial_match"`
	NotFound         int    `json:"not_found"`
	VerificationRate string `json:"verification_rate"`
}

// Renderer writes reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// BuildReport assembles the report envelope for a result
func BuildReport(result *model.ExtractionResult, sc score.Score) *Report {
	rate := "N/A"
	if result.TotalAssertions > 0 {
		rate = fmt.Sprintf("%.1f%%", float64(result.VerifiedCount)/float64(result.TotalAssertions)*100)
	}
	return &Report{
		Document: result.DocumentID,
		Summary: Summary{
			TotalAssertions:  result.TotalAssertions,
			Verified:         result.VerifiedCount,
			PartialMatch:     result.PartialCount,
			NotFound:         result.NotFoundCount,
			VerificationRate: rate,
		},
		Score:  sc,
		Result: result,
	}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evidence Verification Report: %s\n\n", report.Document)
	fmt.Fprintf(&b, "Support index: **%d/100** (%s confidence)\n\n", report.Score.Index, report.Score.Confidence)

	b.WriteString("| Assertions | Verified | Partial | Not found | Rate |\n")
	b.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %s |\n\n",
		report.Summary.TotalAssertions, report.Summary.Verified,
		report.Summary.PartialMatch, report.Summary.NotFound,
		report.Summary.VerificationRate)

	if len(report.Score.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range report.Score.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", sig.Type, sig.Severity, sig.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Evidence\n\n")
	for i, item := range report.Result.Items {
		fmt.Fprintf(&b, "### %d. %s — `%s`\n\n", i+1, item.Assertion.Assertion, item.Status)
		if item.Assertion.ClaimScope != "" {
			fmt.Fprintf(&b, "Scope: %s\n\n", item.Assertion.ClaimScope)
		}
		if item.Reason != "" {
			fmt.Fprintf(&b, "%s\n\n", item.Reason)
		}
		for j, c := range item.Citations {
			fmt.Fprintf(&b, "> %s\n>\n> — %s (%d chars, %s)\n\n",
				c.Quote, c.SourceID, c.CharacterCount, item.Outcomes[j].Status)
		}
	}

	if len(report.Result.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range report.Result.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n")
		b.WriteString("Generated by kensho. Verification confirms verbatim presence in the cited document, not legal sufficiency.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short run summary
func (r *Renderer) RenderSummary(w io.Writer, report *Report) {
	fmt.Fprintf(w, "Document:   %s\n", report.Document)
	fmt.Fprintf(w, "Assertions: %d (verified %d, partial %d, not found %d)\n",
		report.Summary.TotalAssertions, report.Summary.Verified,
		report.Summary.PartialMatch, report.Summary.NotFound)
	fmt.Fprintf(w, "Support:    %d/100 (%s)\n", report.Score.Index, report.Score.Confidence)
	if len(report.Result.Errors) > 0 {
		fmt.Fprintf(w, "Errors:     %d\n", len(report.Result.Errors))
	}
}
