// Package segment converts a hierarchical source document into an ordered
// sequence of addressable text segments, the universe quotes are verified
// against.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmizuno/kensho/internal/model"
)

// Patent paragraph markers embedded in the text itself: [0001], 【0001】, ¶0001
var markerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[(\d{4})\]`),
	regexp.MustCompile(`【(\d{4})】`),
	regexp.MustCompile(`¶(\d{4})`),
}

// Split converts a document into ordered segments plus the flat indexed text
// handed to the generation endpoint ("{id} {text}" per line, in traversal
// order). It is a pure function: an empty or unusable document yields an
// empty slice and empty string, never an error. Segment ids are unique within
// the returned sequence.
func Split(doc model.Document) ([]model.Segment, string) {
	var segments []model.Segment
	var lines []string
	seen := make(map[string]bool)

	for _, section := range doc.Sections {
		for ordinal, text := range section.Paragraphs {
			if strings.TrimSpace(text) == "" {
				continue
			}

			id := extractMarker(text)
			if id == "" || seen[id] {
				id = fmt.Sprintf("[%s_%04d]", section.Name, ordinal)
			}
			// A synthesized id can still collide when two sections share a
			// name; suffix until unique so context lookup stays addressable.
			for suffix := 2; seen[id]; suffix++ {
				id = fmt.Sprintf("[%s_%04d_%d]", section.Name, ordinal, suffix)
			}
			seen[id] = true

			segments = append(segments, model.Segment{
				ID:      id,
				Text:    text,
				Section: section.Name,
				Ordinal: ordinal,
			})
			lines = append(lines, id+" "+text)
		}
	}

	return segments, strings.Join(lines, "\n")
}

// extractMarker returns the normalized "[NNNN]" form of an embedded paragraph
// marker, or "" when the text carries none
func extractMarker(text string) string {
	for _, pattern := range markerPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return "[" + m[1] + "]"
		}
	}
	return ""
}
