package extract

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"found\": true, \"count\": 2}\n```\nDone."

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(obj, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["found"] != true || got["count"] != float64(2) {
		t.Errorf("unexpected object: %v", got)
	}
}

func TestExtractJSON_FencedBlockWinsOverSurroundingBraces(t *testing.T) {
	// Braces outside the fence would confuse a first-to-last scan; the fence
	// strategy runs first.
	raw := "{ not json\n```json\n{\"ok\": 1}\n```\n} trailing"

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(obj) != `{"ok": 1}` {
		t.Errorf("expected fenced object, got %s", obj)
	}
}

func TestExtractJSON_OuterBraces(t *testing.T) {
	raw := `The answer is {"found": false, "reason": "no support"} as requested.`

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	var got struct {
		Found  bool   `json:"found"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(obj, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Found || got.Reason != "no support" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestExtractJSON_NestedObjectViaOuterBraces(t *testing.T) {
	raw := `prefix {"a": {"b": {"c": 1}}} suffix`

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(obj) != `{"a": {"b": {"c": 1}}}` {
		t.Errorf("got %s", obj)
	}
}

func TestExtractJSON_BalancedSearchAfterThinking(t *testing.T) {
	// The stray opening brace inside <thinking> breaks the first-to-last
	// strategy; stripping the region first recovers the object.
	raw := "<thinking>consider { this case</thinking> result: {\"found\": true}"

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(obj) != `{"found": true}` {
		t.Errorf("got %s", obj)
	}
}

func TestExtractJSON_RawText(t *testing.T) {
	raw := `  {"found": true}  `

	obj, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(obj) != `{"found": true}` {
		t.Errorf("got %s", obj)
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		"unbalanced { brace",
		"[1, 2, 3]",
		"```json\nnot an object\n```",
	} {
		if _, err := ExtractJSON(raw); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q): expected ErrNoJSON, got %v", raw, err)
		}
	}
}

func TestExtractThinking(t *testing.T) {
	raw := "<thinking>\n the model reasons here \n</thinking>{\"found\": true}"

	if got := ExtractThinking(raw); got != "the model reasons here" {
		t.Errorf("ExtractThinking = %q", got)
	}
	if got := ExtractThinking("no region"); got != "" {
		t.Errorf("expected empty thinking, got %q", got)
	}
}

func TestStripThinking(t *testing.T) {
	raw := "before<thinking>gone</thinking>after"
	if got := StripThinking(raw); got != "beforeafter" {
		t.Errorf("StripThinking = %q", got)
	}
}

func TestDecodeEvidencePayload(t *testing.T) {
	raw := "```json\n" + `{
  "found": true,
  "evidence": [
    {
      "quote": "リチウムイオン電池２０",
      "source_id": "[0002]",
      "proves": "the prior art discloses a battery",
      "character_count": 11
    }
  ],
  "quality_check": {"is_minimal": true, "is_precise": true, "suitable_for_rejection_notice": true}
}` + "\n```"

	payload, err := DecodeEvidencePayload(raw)
	if err != nil {
		t.Fatalf("DecodeEvidencePayload: %v", err)
	}
	if !payload.Found || len(payload.Evidence) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	want := EvidenceQuote{
		Quote:          "リチウムイオン電池２０",
		SourceID:       "[0002]",
		Proves:         "the prior art discloses a battery",
		CharacterCount: 11,
	}
	if !reflect.DeepEqual(payload.Evidence[0], want) {
		t.Errorf("quote mismatch:\n got %+v\nwant %+v", payload.Evidence[0], want)
	}
	if payload.QualityCheck == nil || !payload.QualityCheck.IsMinimal {
		t.Errorf("quality check not decoded: %+v", payload.QualityCheck)
	}
}

func TestDecodeEvidencePayload_NotFound(t *testing.T) {
	raw := `{"found": false, "reason": "本文に該当する記載がない", "searched_sections": ["background", "summary"]}`

	payload, err := DecodeEvidencePayload(raw)
	if err != nil {
		t.Fatalf("DecodeEvidencePayload: %v", err)
	}
	if payload.Found {
		t.Error("expected found=false")
	}
	if payload.Reason != "本文に該当する記載がない" {
		t.Errorf("reason = %q", payload.Reason)
	}
	if len(payload.SearchedSections) != 2 {
		t.Errorf("searched sections = %v", payload.SearchedSections)
	}
}

func TestDecodeAssertionList(t *testing.T) {
	raw := `{"arguments": [
  {"id": "1", "claim_scope": "請求項1", "assertion": "電池を備える点は引用文献1に記載", "rationale": "新規性欠如"},
  {"id": "2", "claim_scope": "請求項2", "assertion": "ヒーターの配置は設計事項", "rationale": "進歩性欠如"}
], "total_count": 2, "confidence": 0.9}`

	list, err := DecodeAssertionList(raw)
	if err != nil {
		t.Fatalf("DecodeAssertionList: %v", err)
	}
	if len(list.Arguments) != 2 || list.TotalCount != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list.Arguments[0].ID != "1" || list.Arguments[1].ClaimScope != "請求項2" {
		t.Errorf("arguments not decoded: %+v", list.Arguments)
	}
	if list.Confidence != 0.9 {
		t.Errorf("confidence = %v", list.Confidence)
	}
}

func TestDecodeAssertionList_Malformed(t *testing.T) {
	if _, err := DecodeAssertionList("garbage with no braces"); err == nil {
		t.Error("expected error for non-JSON text")
	}
	if _, err := DecodeAssertionList(`{"arguments": "not a list"}`); err == nil {
		t.Error("expected error for schema mismatch")
	}
}
