package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDocument_JSON(t *testing.T) {
	path := writeTemp(t, "doc.json", `{
		"doc_number": "JP2019-001",
		"description": {"background": ["従来技術の説明。"]}
	}`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.DocID != "JP2019-001" {
		t.Errorf("doc id = %q", doc.DocID)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Name != "background" {
		t.Errorf("sections = %+v", doc.Sections)
	}
}

func TestLoadDocument_DocIDFallsBackToFilename(t *testing.T) {
	path := writeTemp(t, "JP2020-555.json", `{"background": ["text"]}`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.DocID != "JP2020-555" {
		t.Errorf("doc id = %q, want filename stem", doc.DocID)
	}
}

func TestLoadDocument_HTML(t *testing.T) {
	path := writeTemp(t, "doc.html", `<html>
<head><title>JP2021-777</title><style>p { color: red }</style></head>
<body>
  <p>intro paragraph before any heading</p>
  <h2>Background Art</h2>
  <p>The device includes a battery.</p>
  <script>var ignored = "</p>";</script>
  <ul><li>list entry text</li></ul>
  <h2>Summary</h2>
  <p>The invention is small.</p>
</body></html>`)

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if doc.DocID != "JP2021-777" {
		t.Errorf("doc id = %q, want title text", doc.DocID)
	}

	wantNames := []string{"body", "background_art", "summary"}
	if len(doc.Sections) != len(wantNames) {
		t.Fatalf("sections = %+v", doc.Sections)
	}
	for i, name := range wantNames {
		if doc.Sections[i].Name != name {
			t.Errorf("section[%d] = %q, want %q", i, doc.Sections[i].Name, name)
		}
	}
	background := doc.Sections[1].Paragraphs
	if len(background) != 2 || background[0] != "The device includes a battery." || background[1] != "list entry text" {
		t.Errorf("background paragraphs = %v", background)
	}
	for _, s := range doc.Sections {
		for _, p := range s.Paragraphs {
			if strings.Contains(p, "ignored") || strings.Contains(p, "color") {
				t.Errorf("script/style text leaked: %q", p)
			}
		}
	}
}

func TestLoadDocument_Missing(t *testing.T) {
	if _, err := LoadDocument(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadReview_PlainText(t *testing.T) {
	path := writeTemp(t, "review.txt", "  拒絶理由の本文。  \n")

	got, err := LoadReview(path)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}
	if got != "拒絶理由の本文。" {
		t.Errorf("review = %q", got)
	}
}

func TestLoadReview_JSON(t *testing.T) {
	path := writeTemp(t, "review.json", `{"examiner_review": "請求項1は引用文献1に記載された発明である。"}`)

	got, err := LoadReview(path)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}
	if got != "請求項1は引用文献1に記載された発明である。" {
		t.Errorf("review = %q", got)
	}
}

func TestLoadReview_FinalDecisionFallback(t *testing.T) {
	path := writeTemp(t, "review.json", `{"final_decision": "本願を拒絶すべきものとする。"}`)

	got, err := LoadReview(path)
	if err != nil {
		t.Fatalf("LoadReview: %v", err)
	}
	if got != "本願を拒絶すべきものとする。" {
		t.Errorf("review = %q", got)
	}
}

func TestLoadReview_JSONWithoutReviewField(t *testing.T) {
	path := writeTemp(t, "review.json", `{"other": "field"}`)

	if _, err := LoadReview(path); err == nil {
		t.Error("expected error for review JSON without known fields")
	}
}
