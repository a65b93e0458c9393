package model

// VerificationStatus classifies how faithful a citation is to the source document
type VerificationStatus string

const (
	StatusVerified        VerificationStatus = "verified"         // Exact or boundary-valid match confirmed
	StatusPartialMatch    VerificationStatus = "partial_match"    // Fuzzy character overlap only
	StatusContextMismatch VerificationStatus = "context_mismatch" // Substring found but cut mid-sentence
	StatusNotFound        VerificationStatus = "not_found"        // No matching text in the document
)

// Assertion is a single technical claim parsed from an examiner review.
// Immutable once produced.
type Assertion struct {
	ID         string `json:"id"`
	ClaimScope string `json:"claim_scope"`
	Assertion  string `json:"assertion"`
	Rationale  string `json:"rationale,omitempty"`
}

// Citation is a candidate verbatim excerpt proposed as evidence for an assertion
type Citation struct {
	Quote          string `json:"quote"`                    // Candidate excerpt, verbatim
	SourceID       string `json:"source_id"`                // Paragraph id the quote resolves to (or was declared as)
	CharacterCount int    `json:"character_count"`          // Quote length in runes
	Proves         string `json:"proves,omitempty"`         // What the quote is claimed to prove
	ContextBefore  string `json:"context_before,omitempty"` // Raw text of the preceding segment
	ContextAfter   string `json:"context_after,omitempty"`  // Raw text of the following segment
	IsMinimal      bool   `json:"is_minimal"`               // CharacterCount <= configured maximum
}

// Verification is the outcome of checking one citation against the segments.
// SegmentID is authoritative only when Status is verified; for partial matches
// it names the first segment that crossed the fuzzy threshold.
type Verification struct {
	Status        VerificationStatus `json:"status"`
	SegmentID     string             `json:"segment_id,omitempty"`
	ContextBefore string             `json:"context_before,omitempty"`
	ContextAfter  string             `json:"context_after,omitempty"`
}

// EvidenceItem pairs an assertion with its citations and their verification
// outcomes. Outcomes is 1:1 with Citations.
type EvidenceItem struct {
	Assertion Assertion          `json:"assertion"`
	Citations []Citation         `json:"citations,omitempty"`
	Outcomes  []Verification     `json:"citation_outcomes,omitempty"`
	Status    VerificationStatus `json:"aggregate_outcome"`
	Reason    string             `json:"reason,omitempty"`           // Model-reported reason when no evidence was found
	Thinking  string             `json:"thinking_process,omitempty"` // Model reasoning trace, if emitted
}

// Aggregate derives the item-level status from per-citation outcomes:
// verified iff every outcome is verified, partial_match if at least one is,
// not_found otherwise.
func Aggregate(outcomes []Verification) VerificationStatus {
	if len(outcomes) == 0 {
		return StatusNotFound
	}
	verified := 0
	for _, o := range outcomes {
		if o.Status == StatusVerified {
			verified++
		}
	}
	switch {
	case verified == len(outcomes):
		return StatusVerified
	case verified > 0:
		return StatusPartialMatch
	default:
		return StatusNotFound
	}
}

// ExtractionResult is the complete outcome of one mining run. It is always
// well-formed: failures are recorded in Errors, never raised to the caller.
type ExtractionResult struct {
	DocumentID      string         `json:"documentId"`
	TotalAssertions int            `json:"totalAssertions"`
	VerifiedCount   int            `json:"verifiedCount"`
	PartialCount    int            `json:"partialCount"`
	NotFoundCount   int            `json:"notFoundCount"`
	Items           []EvidenceItem `json:"items"`
	Errors          []string       `json:"errors,omitempty"`
}

// Tally recomputes the run counters from Items
func (r *ExtractionResult) Tally() {
	r.VerifiedCount = 0
	r.PartialCount = 0
	r.NotFoundCount = 0
	for _, item := range r.Items {
		switch item.Status {
		case StatusVerified:
			r.VerifiedCount++
		case StatusPartialMatch:
			r.PartialCount++
		default:
			r.NotFoundCount++
		}
	}
}
