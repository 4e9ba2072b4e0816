// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mention turns upstream extraction output into normalized
// mentions: canonical keys, E-number codes and sane defaults for type and
// section. It also synthesizes mentions from plain segmented OCR text when
// no vision output is available.
package mention

import (
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/segment"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// Confidence assigned to results synthesized from plain text.
const (
	textConfidenceWithHeader = 0.5
	textConfidenceNoHeader   = 0.3
)

// Normalize returns a copy of m with Canonical and ENumbers derived from
// Surface. Offset, Section and Type are kept as provided; an empty type
// defaults to ingredient and an empty section to other.
func Normalize(m types.Mention) types.Mention {
	out := m
	out.Canonical = textnorm.Canonicalize(m.Surface)
	out.ENumbers = textnorm.ExtractENumbers(m.Surface)
	if out.Type == "" {
		out.Type = types.MentionIngredient
	}
	if out.Section == "" {
		out.Section = types.SectionOther
	}
	out.ImpliesAllergens = cloneStrings(m.ImpliesAllergens)
	if out.ImpliesAllergens == nil {
		out.ImpliesAllergens = []string{}
	}
	out.SubIngredients = cloneStrings(m.SubIngredients)
	return out
}

// NormalizeAll normalizes every mention, returning a new slice.
func NormalizeAll(mentions []types.Mention) []types.Mention {
	out := make([]types.Mention, len(mentions))
	for i, m := range mentions {
		out[i] = Normalize(m)
	}
	return out
}

// NormalizeResult returns a copy of r with all mentions normalized.
func NormalizeResult(r types.IngredientsResult) types.IngredientsResult {
	out := r
	out.Mentions = NormalizeAll(r.Mentions)
	return out
}

// FromSegment builds an IngredientsResult from segmented OCR text. Each
// item becomes an ingredient mention and each trace statement a may_contain
// warning. Offsets are located by searching the source text forward from
// the previous item, so repeated words highlight in reading order.
func FromSegment(ocrText string, seg segment.Segment) types.IngredientsResult {
	confidence := textConfidenceNoHeader
	if seg.HadHeaderMatch {
		confidence = textConfidenceWithHeader
	}

	result := types.IngredientsResult{
		OCRText:           ocrText,
		Language:          "es",
		Quality:           types.Quality{Legibility: "unknown", Confidence: confidence},
		Mentions:          []types.Mention{},
		DetectedAllergens: []types.DetectedAllergen{},
		Warnings:          []string{},
		Confidence:        confidence,
	}

	cursor := 0
	for _, item := range seg.Items {
		off, next := locate(ocrText, item, cursor)
		cursor = next
		result.Mentions = append(result.Mentions, Normalize(types.Mention{
			Surface: item,
			Type:    types.MentionIngredient,
			Section: types.SectionIngredients,
			Offset:  off,
		}))
	}

	cursor = 0
	for _, trace := range seg.Traces {
		off, next := locate(ocrText, trace, cursor)
		cursor = next
		result.Mentions = append(result.Mentions, Normalize(types.Mention{
			Surface:  trace,
			Type:     types.MentionWarning,
			Section:  types.SectionMayContain,
			Offset:   off,
			Evidence: trace,
		}))
	}

	if !seg.HadHeaderMatch && len(seg.Items) > 0 {
		result.Warnings = append(result.Warnings, "ingredients header not found; whole text treated as ingredient list")
	}
	return result
}

// locate finds needle in haystack at or after byte offset from and returns
// its rune offsets plus the byte position to continue from. Items whose
// whitespace was collapsed may not be found verbatim; they get a zero
// offset and the cursor does not move.
func locate(haystack, needle string, from int) (types.Offset, int) {
	if from > len(haystack) {
		from = len(haystack)
	}
	idx := strings.Index(haystack[from:], needle)
	if idx < 0 {
		return types.Offset{}, from
	}
	start := from + idx
	end := start + len(needle)
	runeStart := len([]rune(haystack[:start]))
	return types.Offset{
		Start: runeStart,
		End:   runeStart + len([]rune(needle)),
	}, end
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
