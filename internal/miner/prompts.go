package miner

import "strings"

// PromptSet holds the natural-language templates handed to the generation
// endpoint. The text is opaque configuration: the miner only substitutes the
// placeholders, it attaches no meaning to the wording. Callers may swap in
// their own templates as long as the placeholders survive.
type PromptSet struct {
	System          string
	ParseReview     string // {examiner_review}
	ExtractEvidence string // {assertion}, {full_text}
	Guardrail       string // Appended to every prompt
}

// BuildParseReview substitutes the review text. ReplaceAll instead of a
// format string: review text routinely contains braces.
func (p PromptSet) BuildParseReview(reviewText string) string {
	return strings.ReplaceAll(p.ParseReview, "{examiner_review}", reviewText) + p.Guardrail
}

// BuildExtractEvidence substitutes the assertion and the indexed document text
func (p PromptSet) BuildExtractEvidence(assertion, fullText string) string {
	out := strings.ReplaceAll(p.ExtractEvidence, "{assertion}", assertion)
	out = strings.ReplaceAll(out, "{full_text}", fullText)
	return out + p.Guardrail
}

// DefaultPrompts returns the built-in Japanese patent-examination templates
func DefaultPrompts() PromptSet {
	return PromptSet{
		System:          systemInstruction,
		ParseReview:     parseReviewPrompt,
		ExtractEvidence: extractEvidencePrompt,
		Guardrail:       "\n\n必ず日本語で出力してください (Output in Japanese).",
	}
}

const systemInstruction = `あなたは日本の特許庁（JPO）の熟練した特許審査官アシスタントです。
あなたの役割は、拒絶理由通知書に記載された主張を裏付ける証拠を、先行技術文献から抽出することです。

【重要不可侵ルール】
1. **言語**: すべての思考プロセスと出力テキストは、必ず「日本語」で記述してください。JSONのキーのみ英語を使用します。
2. **原文尊重**: 特許文献からの引用（quote）は、一字一句変更せず、句読点や空白も含めて原文のまま抽出してください。翻訳や要約は厳禁です。
3. **客観性**: 主張を裏付ける記載がない場合は、正直に「見つからない」と報告してください。捏造は許されません。`

const parseReviewPrompt = `以下の【審査官の拒絶理由】を分析し、拒絶の根拠となる本質的な主張を抽出してください。

# 入力
【審査官の拒絶理由】
{examiner_review}

# 出力要件
1. 拒絶理由の成立に不可欠な技術的主張のみを抽出する。
2. 「新規性がない」「容易に想到できる」といった法的結論は除外する。
3. rationale（根拠）やassertion（主張）の内容は必ず日本語で記述すること。

# Output Format (JSON Schema)
` + "```json" + `
{
  "arguments": [
    {
      "id": "arg_001",
      "claim_scope": "請求項1 - 構成要件A",
      "assertion": "容器の底部に電池とヒーターを内蔵する構成が開示されている",
      "rationale": "請求項の主要構成要件Aに直接対応するため"
    }
  ],
  "total_count": 1,
  "confidence": 0.95
}
` + "```"

const extractEvidencePrompt = `あなたは「特許審査官」です。拒絶理由通知書に記載するための証拠を、
先行技術文献から必要最小限かつ正確に抽出してください。

# 入力データ
【検証すべき主張 (Assertion)】
{assertion}

【検索対象文献（段落番号付き）】
{full_text}

# 引用抽出の厳格なルール
1. 主張を証明できる最も明確な1文のみを抽出する（段落全体の引用は禁止）。
2. 引用は一字一句原文のまま。途中で切らない。60文字以内が理想、最大100文字。
3. 複数の文が必要な場合は、それぞれを独立した引用として分けて抽出する。
4. 各引用に段落番号（source_id）を付与する。
5. 該当する記載がなければ正直に found: false を返す。

# 出力手順
Step 1: <thinking>タグ内で、確認した段落と判断の過程を記述する。
Step 2: JSONブロックで構造化データを出力する。

# 出力フォーマット

証拠が見つかった場合:
` + "```json" + `
{
  "found": true,
  "evidence": [
    {
      "quote": "原文を一字一句そのまま（必要最小限の長さ）",
      "source_id": "[段落番号]",
      "context_before": "引用の直前の文（あれば）",
      "context_after": "引用の直後の文（あれば）",
      "proves": "この引用が証明する具体的内容",
      "reasoning": "なぜこの引用が適切かの説明",
      "character_count": 45
    }
  ],
  "quality_check": {
    "is_minimal": true,
    "is_precise": true,
    "suitable_for_rejection_notice": true
  }
}
` + "```" + `

証拠が見つからない場合:
` + "```json" + `
{
  "found": false,
  "reason": "該当する記載が見つからなかった具体的理由",
  "searched_sections": ["確認した段落番号のリスト"]
}
` + "```" + `

必ず <thinking> と JSON の両方を出力してください。`
