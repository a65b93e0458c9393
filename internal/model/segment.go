package model

// Segment is the smallest addressable unit of a source document (a paragraph
// or a whole section). Ids are stable across runs: either an embedded
// paragraph marker like "[0016]" or a synthesized "[section_0003]".
type Segment struct {
	ID      string `json:"id"`      // Paragraph id (e.g., "[0025]")
	Text    string `json:"text"`    // Raw text, never normalized in place
	Section string `json:"section"` // Section name (background, detailed_description, ...)
	Ordinal int    `json:"ordinal"` // Index within the section (0-based)
}
