package extract

import (
	"encoding/json"
	"fmt"

	"github.com/pmizuno/kensho/internal/model"
)

// AssertionList is the structured payload expected from the review-parsing
// call: the essential technical assertions behind an examiner's rejection.
type AssertionList struct {
	Arguments  []model.Assertion `json:"arguments"`
	TotalCount int               `json:"total_count"`
	Confidence float64           `json:"confidence"`
}

// EvidencePayload is the structured payload expected from a per-assertion
// evidence call
type EvidencePayload struct {
	Found            bool            `json:"found"`
	Evidence         []EvidenceQuote `json:"evidence,omitempty"`
	Reason           string          `json:"reason,omitempty"`
	SearchedSections []string        `json:"searched_sections,omitempty"`
	QualityCheck     *QualityCheck   `json:"quality_check,omitempty"`
}

// EvidenceQuote is one proposed citation as the model emits it, before
// verification
type EvidenceQuote struct {
	Quote          string `json:"quote"`
	SourceID       string `json:"source_id"`
	ContextBefore  string `json:"context_before,omitempty"`
	ContextAfter   string `json:"context_after,omitempty"`
	Proves         string `json:"proves,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
	CharacterCount int    `json:"character_count,omitempty"`
}

// QualityCheck is the model's self-assessment of its citations
type QualityCheck struct {
	IsMinimal         bool `json:"is_minimal"`
	IsPrecise         bool `json:"is_precise"`
	SuitableForNotice bool `json:"suitable_for_rejection_notice"`
}

// DecodeAssertionList extracts and decodes an assertion list from raw model
// output
func DecodeAssertionList(raw string) (*AssertionList, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var list AssertionList
	if err := json.Unmarshal(obj, &list); err != nil {
		return nil, fmt.Errorf("decode assertion list: %w", err)
	}
	return &list, nil
}

// DecodeEvidencePayload extracts and decodes an evidence payload from raw
// model output
func DecodeEvidencePayload(raw string) (*EvidencePayload, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	var payload EvidencePayload
	if err := json.Unmarshal(obj, &payload); err != nil {
		return nil, fmt.Errorf("decode evidence payload: %w", err)
	}
	return &payload, nil
}
