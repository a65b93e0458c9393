// Package verify checks candidate quotations against a segmented source
// document. A quote only counts as verified when it is verbatim: either the
// whole segment or a substring that starts and ends on a sentence boundary.
// Fuzzy character overlap is a fallback classification, never a verification.
package verify

import (
	"strings"
	"unicode/utf8"

	"github.com/pmizuno/kensho/internal/model"
	"github.com/pmizuno/kensho/internal/segment"
)

// DefaultFuzzyThreshold is the empirical character-overlap cutoff for partial matches
const DefaultFuzzyThreshold = 0.85

// Characters that may legally surround a verbatim quote. Start and end of the
// segment count as boundaries too.
var boundaryRunes = map[rune]bool{
	' ':  true,
	'。': true,
	'、': true,
	'「': true,
	'」': true,
	'\n': true,
	'\t': true,
}

// Verifier locates quotes inside a segment sequence
type Verifier struct {
	fuzzyThreshold float64
}

// NewVerifier creates a verifier with the given fuzzy-match threshold
// (0 means DefaultFuzzyThreshold)
func NewVerifier(fuzzyThreshold float64) *Verifier {
	if fuzzyThreshold <= 0 || fuzzyThreshold > 1 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Verifier{fuzzyThreshold: fuzzyThreshold}
}

// Verify classifies a quote against the segments, in priority order:
//
//  1. exact match after whitespace normalization -> verified
//  2. normalized substring with valid boundaries in the raw text -> verified;
//     invalid boundaries -> context_mismatch, which ends the search
//  3. fuzzy character-set overlap >= threshold -> partial_match
//  4. otherwise -> not_found
//
// The surrounding-segment context is populated only for verified quotes.
// Deterministic and side-effect free.
func (v *Verifier) Verify(quote string, segments []model.Segment) model.Verification {
	quoteNorm := segment.Normalize(quote)
	if quoteNorm == "" {
		return model.Verification{Status: model.StatusNotFound}
	}

	for i, seg := range segments {
		textNorm := segment.Normalize(seg.Text)

		if quoteNorm == textNorm {
			return verified(segments, i)
		}

		if strings.Contains(textNorm, quoteNorm) {
			if boundariesValid(quote, seg.Text) {
				return verified(segments, i)
			}
			// Substring located but cut mid-word: report the mismatch and
			// stop, a fuzzy pass must not promote a bad truncation.
			return model.Verification{Status: model.StatusContextMismatch}
		}
	}

	for _, seg := range segments {
		if v.charOverlap(quoteNorm, segment.Normalize(seg.Text)) >= v.fuzzyThreshold {
			return model.Verification{
				Status:    model.StatusPartialMatch,
				SegmentID: seg.ID,
			}
		}
	}

	return model.Verification{Status: model.StatusNotFound}
}

// verified builds a verified outcome with raw adjacent-segment context
func verified(segments []model.Segment, i int) model.Verification {
	out := model.Verification{
		Status:    model.StatusVerified,
		SegmentID: segments[i].ID,
	}
	if i > 0 {
		out.ContextBefore = segments[i-1].Text
	}
	if i < len(segments)-1 {
		out.ContextAfter = segments[i+1].Text
	}
	return out
}

// boundariesValid reports whether the raw quote occurs in the raw segment
// text with boundary characters (or string ends) on both sides. When the raw
// quote cannot be located at all, only its normalized form, the boundaries
// cannot be vouched for and the match is rejected.
func boundariesValid(quote, text string) bool {
	idx := strings.Index(text, quote)
	if idx < 0 {
		return false
	}

	if idx > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:idx])
		if !boundaryRunes[r] {
			return false
		}
	}
	if end := idx + len(quote); end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if !boundaryRunes[r] {
			return false
		}
	}
	return true
}

// charOverlap computes |charset(quote) ∩ charset(text)| / |charset(quote)|
// over normalized text with spaces excluded. Rune-based so CJK text counts
// characters, not bytes.
func (v *Verifier) charOverlap(quoteNorm, textNorm string) float64 {
	quoteSet := charset(quoteNorm)
	if len(quoteSet) == 0 {
		return 0
	}
	textSet := charset(textNorm)

	overlap := 0
	for r := range quoteSet {
		if textSet[r] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(quoteSet))
}

func charset(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		if r != ' ' {
			set[r] = true
		}
	}
	return set
}
