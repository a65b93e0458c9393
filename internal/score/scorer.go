// Package score derives a transparent support index and diagnostic signals
// from a finished extraction run. Scoring is descriptive only: it never feeds
// back into mining or verification.
package score

import (
	"fmt"

	"github.com/pmizuno/kensho/internal/model"
)

// Score is the run-level support summary
type Score struct {
	Index      int      `json:"index"`      // 0-100: how well the review's assertions are supported
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals,omitempty"`
}

// Signal is one diagnostic observation with its severity
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
}

// SignalType classifies the diagnostic signal
type SignalType string

const (
	SignalVerificationRate   SignalType = "verification_rate"
	SignalHighAssertionCount SignalType = "high_assertion_count"
	SignalOversizedQuotes    SignalType = "oversized_quotes"
	SignalContextMismatch    SignalType = "context_mismatch"
	SignalRunErrors          SignalType = "run_errors"
	SignalEmptyDocument      SignalType = "empty_document"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Scorer computes scores from extraction results
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate derives the support index and signals. The index is the verified
// share of assertions with partial matches counted at half weight.
func (s *Scorer) Calculate(result *model.ExtractionResult) Score {
	score := Score{Confidence: "low"}

	if result.TotalAssertions == 0 {
		score.Signals = append(score.Signals, Signal{
			Type:        SignalEmptyDocument,
			Severity:    SeverityCritical,
			Description: "no assertions were extracted from the review",
		})
		return score
	}

	supported := float64(result.VerifiedCount) + 0.5*float64(result.PartialCount)
	score.Index = int(supported/float64(result.TotalAssertions)*100 + 0.5)

	switch {
	case score.Index >= 80:
		score.Confidence = "high"
	case score.Index >= 50:
		score.Confidence = "medium"
	}

	score.Signals = append(score.Signals, Signal{
		Type:     SignalVerificationRate,
		Severity: SeverityInfo,
		Description: fmt.Sprintf("%d/%d assertions fully verified, %d partial, %d not found",
			result.VerifiedCount, result.TotalAssertions, result.PartialCount, result.NotFoundCount),
	})

	if result.TotalAssertions > 8 {
		score.Signals = append(score.Signals, Signal{
			Type:        SignalHighAssertionCount,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d assertions extracted, typical reviews yield 2-5", result.TotalAssertions),
		})
	}

	oversized := 0
	mismatches := 0
	for _, item := range result.Items {
		for _, c := range item.Citations {
			if !c.IsMinimal {
				oversized++
			}
		}
		for _, o := range item.Outcomes {
			if o.Status == model.StatusContextMismatch {
				mismatches++
			}
		}
	}
	if oversized > 0 {
		score.Signals = append(score.Signals, Signal{
			Type:        SignalOversizedQuotes,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d citations exceed the minimal-quote length", oversized),
		})
	}
	if mismatches > 0 {
		score.Signals = append(score.Signals, Signal{
			Type:        SignalContextMismatch,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d citations were truncated mid-sentence (context mismatch)", mismatches),
		})
	}

	if len(result.Errors) > 0 {
		score.Signals = append(score.Signals, Signal{
			Type:        SignalRunErrors,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d errors recorded during the run", len(result.Errors)),
		})
	}

	return score
}
