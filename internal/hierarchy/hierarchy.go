// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hierarchy expands compound ingredients such as
// "Chocolate (leche, cacao, E322)" into a parent mention followed by one
// child mention per sub-ingredient, and checks the resulting tree for
// inconsistencies.
package hierarchy

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lukas-andre/alergias-app-sub001/internal/segment"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// PostProcess returns a copy of result whose compound ingredient mentions
// are expanded into parent/child trees. DetectedAllergens source indexes
// are remapped to the new positions of their (parent) mentions. The input
// is not modified.
func PostProcess(result types.IngredientsResult) types.IngredientsResult {
	out := result
	out.Mentions = make([]types.Mention, 0, len(result.Mentions))
	remap := make([]int, len(result.Mentions))

	for i, m := range result.Mentions {
		remap[i] = len(out.Mentions)
		out.Mentions = append(out.Mentions, Expand(m)...)
	}

	if result.DetectedAllergens != nil {
		out.DetectedAllergens = make([]types.DetectedAllergen, len(result.DetectedAllergens))
		for i, da := range result.DetectedAllergens {
			nd := da
			if da.SourceMentions != nil {
				nd.SourceMentions = make([]int, 0, len(da.SourceMentions))
				for _, idx := range da.SourceMentions {
					if idx >= 0 && idx < len(remap) {
						nd.SourceMentions = append(nd.SourceMentions, remap[idx])
					}
				}
			}
			out.DetectedAllergens[i] = nd
		}
	}
	return out
}

// Expand maps one mention to the mentions that replace it. Ingredient
// mentions with a balanced top-level parenthetical group become the parent
// followed by its children; everything else is returned unchanged as a
// single-element slice. Only the first group is expanded and nested groups
// stay inside their sub-item. Sub-items without a letter ("3%", "E") are
// not ingredients and are dropped; a group left with none passes through,
// as does a group behind a parent with no canonical name ("* (leche)").
func Expand(m types.Mention) []types.Mention {
	if m.Type != types.MentionIngredient {
		return []types.Mention{m}
	}

	open, closing, ok := firstGroup(m.Surface)
	if !ok {
		return []types.Mention{m}
	}

	parentName := strings.TrimSpace(m.Surface[:open])
	parentCanonical := textnorm.Canonicalize(parentName)
	if parentCanonical == "" {
		// Children could not be linked back to a nameless parent.
		return []types.Mention{m}
	}

	var children []string
	for _, item := range segment.SplitItems(m.Surface[open+1 : closing]) {
		if hasLetter(item) {
			children = append(children, item)
		}
	}
	if len(children) == 0 {
		return []types.Mention{m}
	}

	parent := m
	parent.Surface = parentName
	parent.Canonical = parentCanonical
	parent.ENumbers = textnorm.ExtractENumbers(parentName)
	parent.SubIngredients = children
	parent.ImpliesAllergens = cloneOrEmpty(m.ImpliesAllergens)

	out := make([]types.Mention, 0, len(children)+1)
	out = append(out, parent)
	for _, child := range children {
		out = append(out, types.Mention{
			Surface:          child,
			Canonical:        textnorm.Canonicalize(child),
			Type:             m.Type,
			Section:          m.Section,
			Offset:           m.Offset,
			ENumbers:         textnorm.ExtractENumbers(child),
			ImpliesAllergens: cloneOrEmpty(m.ImpliesAllergens),
			ParentCanonical:  parent.Canonical,
		})
	}
	return out
}

// firstGroup returns the byte indexes of the first top-level '(' and its
// matching ')'. ok is false when there is no group or it never closes.
func firstGroup(s string) (open, closing int, ok bool) {
	depth := 0
	open = -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				open = i
			}
			depth++
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && open >= 0 {
				return open, i, true
			}
		}
	}
	return -1, -1, false
}

// hasLetter filters out pure quantities such as "3%" that sometimes sit in
// parentheses after an ingredient name.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func cloneOrEmpty(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Validate checks a mention list for hierarchy inconsistencies and returns
// advisory warnings. It never modifies its input. It reports children whose
// parent_canonical matches no mention owning sub-ingredients, children not
// listed in their parent's sub_ingredients, and surfaces with unbalanced
// parentheses.
func Validate(mentions []types.Mention) []string {
	parents := make(map[string][]types.Mention)
	for _, m := range mentions {
		if len(m.SubIngredients) > 0 {
			parents[m.Canonical] = append(parents[m.Canonical], m)
		}
	}

	var warnings []string
	for i, m := range mentions {
		if m.ParentCanonical != "" {
			owners, ok := parents[m.ParentCanonical]
			switch {
			case !ok:
				warnings = append(warnings, fmt.Sprintf(
					"mention %d %q: orphaned child, parent %q not found", i, m.Surface, m.ParentCanonical))
			case !listsChild(owners, m.Surface):
				warnings = append(warnings, fmt.Sprintf(
					"mention %d %q: not listed in sub_ingredients of parent %q", i, m.Surface, m.ParentCanonical))
			}
		}
		if opens, closes := strings.Count(m.Surface, "("), strings.Count(m.Surface, ")"); opens != closes {
			warnings = append(warnings, fmt.Sprintf(
				"mention %d %q: unbalanced parentheses (%d open, %d close)", i, m.Surface, opens, closes))
		}
	}
	return warnings
}

func listsChild(owners []types.Mention, surface string) bool {
	for _, p := range owners {
		for _, s := range p.SubIngredients {
			if s == surface {
				return true
			}
		}
	}
	return false
}
