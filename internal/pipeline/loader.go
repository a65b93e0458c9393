package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmizuno/kensho/internal/model"
	"golang.org/x/net/html"
)

// LoadDocument reads a source document from disk. JSON files keep their
// section order; HTML files are sectioned by headings with paragraph tags as
// segments.
func LoadDocument(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("read document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc, err := parseHTMLDocument(string(data))
		if err != nil {
			return model.Document{}, err
		}
		if doc.DocID == "" {
			doc.DocID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return doc, nil
	default:
		doc, err := model.ParseDocument(data)
		if err != nil {
			return model.Document{}, err
		}
		if doc.DocID == "" {
			doc.DocID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return doc, nil
	}
}

// LoadReview reads examiner review text from disk. JSON files are expected
// to carry the text under "examiner_review" (or "final_decision" for appeal
// decisions); anything else is treated as plain text.
func LoadReview(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read review: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var payload struct {
			ExaminerReview string `json:"examiner_review"`
			FinalDecision  string `json:"final_decision"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", fmt.Errorf("parse review: %w", err)
		}
		if payload.ExaminerReview != "" {
			return payload.ExaminerReview, nil
		}
		if payload.FinalDecision != "" {
			return payload.FinalDecision, nil
		}
		return "", fmt.Errorf("review file has neither examiner_review nor final_decision")
	}

	return strings.TrimSpace(string(data)), nil
}

// parseHTMLDocument builds a document from HTML: h1-h3 headings open a new
// section, visible paragraph text becomes that section's paragraphs.
// Scripts, styles and markup noise are dropped.
func parseHTMLDocument(content string) (model.Document, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return model.Document{}, fmt.Errorf("parse html: %w", err)
	}

	var doc model.Document
	current := model.DocSection{Name: "body"}

	flush := func() {
		if len(current.Paragraphs) > 0 {
			doc.Sections = append(doc.Sections, current)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if doc.DocID == "" {
					doc.DocID = strings.TrimSpace(nodeText(n))
				}
				return
			case "h1", "h2", "h3":
				flush()
				name := sectionName(nodeText(n))
				if name == "" {
					name = "section"
				}
				current = model.DocSection{Name: name}
				return
			case "p", "li":
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					current.Paragraphs = append(current.Paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()

	return doc, nil
}

// nodeText concatenates the visible text below a node
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// sectionName makes a heading usable inside a segment id
func sectionName(heading string) string {
	name := strings.ToLower(strings.TrimSpace(heading))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return r // Keep non-ASCII headings (Japanese section names) as-is
		}
	}, name)
	return strings.Trim(name, "_")
}
