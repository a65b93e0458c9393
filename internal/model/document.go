package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a source document reduced to an ordered list of named sections.
// Section order matters: segment context lookup depends on it, so documents
// parsed from JSON preserve object key order instead of going through a Go map.
type Document struct {
	DocID    string
	Sections []DocSection
}

// DocSection is one named section with its paragraphs in source order
type DocSection struct {
	Name       string
	Paragraphs []string
}

// IsEmpty reports whether the document has no usable text
func (d Document) IsEmpty() bool {
	for _, s := range d.Sections {
		for _, p := range s.Paragraphs {
			if strings.TrimSpace(p) != "" {
				return false
			}
		}
	}
	return true
}

// ParseDocument parses a document from JSON while preserving section order.
//
// Two shapes are accepted:
//
//	{"doc_number": "JP2020-123", "description": {"background": [...], ...}}
//	{"background": [...], "summary": "..."}
//
// Section values may be a string, a list of strings, or a list nested one
// level (sub-section lists are flattened in order). Nested objects inside the
// section mapping are skipped, never merged. A malformed document yields an
// error; callers treating that as "nothing to verify" should fall back to an
// empty Document.
func ParseDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Document{}, fmt.Errorf("parse document: top level must be an object")
	}

	var doc Document
	var descSections []DocSection
	sawDescription := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Document{}, fmt.Errorf("parse document: %w", err)
		}
		key := keyTok.(string)

		switch key {
		case "doc_number", "document_id":
			var id string
			if err := dec.Decode(&id); err != nil {
				return Document{}, fmt.Errorf("parse %s: %w", key, err)
			}
			doc.DocID = id
		case "description":
			sections, err := parseSectionMap(dec)
			if err != nil {
				return Document{}, err
			}
			descSections = sections
			sawDescription = true
		default:
			section, skipped, err := parseSectionValue(dec, key)
			if err != nil {
				return Document{}, err
			}
			if !skipped {
				doc.Sections = append(doc.Sections, section)
			}
		}
	}

	// A "description" object wins over loose top-level sections: the loose
	// keys are then metadata (claims, title, ...), not document body.
	if sawDescription {
		doc.Sections = descSections
	}
	return doc, nil
}

// parseSectionMap reads an object of section-name -> content in key order
func parseSectionMap(dec *json.Decoder) ([]DocSection, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse description: expected object")
	}

	var sections []DocSection
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse description: %w", err)
		}
		name := keyTok.(string)

		section, skipped, err := parseSectionValue(dec, name)
		if err != nil {
			return nil, err
		}
		if !skipped {
			sections = append(sections, section)
		}
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, fmt.Errorf("parse description: %w", err)
	}
	return sections, nil
}

// parseSectionValue decodes one section value. Strings become a single
// paragraph, lists are flattened one nesting level, objects are skipped.
func parseSectionValue(dec *json.Decoder, name string) (DocSection, bool, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return DocSection{}, false, fmt.Errorf("parse section %q: %w", name, err)
	}

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return DocSection{}, false, fmt.Errorf("parse section %q: %w", name, err)
		}
		if strings.TrimSpace(s) == "" {
			return DocSection{}, true, nil
		}
		return DocSection{Name: name, Paragraphs: []string{s}}, false, nil

	case strings.HasPrefix(trimmed, "["):
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return DocSection{}, false, fmt.Errorf("parse section %q: %w", name, err)
		}
		var paragraphs []string
		for _, entry := range entries {
			paragraphs = appendParagraphs(paragraphs, entry, false)
		}
		if len(paragraphs) == 0 {
			return DocSection{}, true, nil
		}
		return DocSection{Name: name, Paragraphs: paragraphs}, false, nil

	default:
		// Objects and scalars other than strings carry no paragraph text
		return DocSection{}, true, nil
	}
}

// appendParagraphs collects string entries, descending at most one level into
// nested lists. Anything else (objects, numbers, deeper nesting) is dropped.
func appendParagraphs(out []string, entry json.RawMessage, nested bool) []string {
	trimmed := strings.TrimSpace(string(entry))
	switch {
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(entry, &s); err == nil && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	case strings.HasPrefix(trimmed, "[") && !nested:
		var inner []json.RawMessage
		if err := json.Unmarshal(entry, &inner); err == nil {
			for _, e := range inner {
				out = appendParagraphs(out, e, true)
			}
		}
	}
	return out
}
