// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package risk

import (
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// Folded phrases that mark precautionary labelling rather than content.
var (
	crossContactPhrases = []string{"misma linea", "instalacion"}
	tracePhrases        = append([]string{"puede contener", "podria contener", "trazas", "elaborado en"}, crossContactPhrases...)
)

// negationPrefixes open statements that rule an allergen out. They are
// compared against the start of a mention's canonical form.
var negationPrefixes = []string{"no_contiene", "no_contener", "libre_de", "libre_en", "sin", "exento_de", "free_from", "free_of"}

// labelIndex answers "does this label contain key" and "does it warn about
// key" over one IngredientsResult. Mentions are split into content
// mentions (ingredients, allergens, "contiene" statements) and trace
// mentions (may_contain section or precautionary warnings). Claims, icons
// and negated warnings are ignored: "sin gluten" and "no contiene gluten"
// must not count as gluten.
type labelIndex struct {
	mentions   []types.Mention
	canonicals []string
	keys       []map[string]bool
	content    []int
	traces     []int

	// unsourced holds detected allergen keys whose provenance indexes are
	// missing or out of range. They count as content without a mention.
	unsourced map[string]bool
}

func newLabelIndex(result types.IngredientsResult, matches map[string][]types.SynonymMatch) *labelIndex {
	n := len(result.Mentions)
	idx := &labelIndex{
		mentions:   result.Mentions,
		canonicals: make([]string, n),
		keys:       make([]map[string]bool, n),
		unsourced:  make(map[string]bool),
	}

	for i, m := range result.Mentions {
		canonical := m.Canonical
		if canonical == "" {
			canonical = textnorm.Canonicalize(m.Surface)
		}
		idx.canonicals[i] = canonical

		keys := make(map[string]bool)
		for _, k := range m.ImpliesAllergens {
			addKey(keys, k)
		}
		for _, sm := range matches[m.Surface] {
			addKey(keys, sm.AllergenKey)
		}
		for _, code := range m.ENumbers {
			addKey(keys, code)
		}
		idx.keys[i] = keys

		switch {
		case isNegated(m, canonical):
		case isTrace(m):
			idx.traces = append(idx.traces, i)
		case m.Type == types.MentionIngredient, m.Type == types.MentionAllergen, m.Type == types.MentionWarning:
			idx.content = append(idx.content, i)
		}
	}

	for _, d := range result.DetectedAllergens {
		key := textnorm.Canonicalize(d.Key)
		if key == "" {
			continue
		}
		sourced := false
		for _, s := range d.SourceMentions {
			if s >= 0 && s < n {
				idx.keys[s][key] = true
				sourced = true
			}
		}
		if !sourced {
			idx.unsourced[key] = true
		}
	}
	return idx
}

func addKey(set map[string]bool, k string) {
	if c := textnorm.Canonicalize(k); c != "" {
		set[c] = true
	}
}

// isNegated reports whether a warning or may_contain mention states the
// absence of something, e.g. "No contiene gluten" or "Libre de lactosa".
func isNegated(m types.Mention, canonical string) bool {
	if m.Type != types.MentionWarning && m.Section != types.SectionMayContain {
		return false
	}
	for _, p := range negationPrefixes {
		if canonical == p || strings.HasPrefix(canonical, p+"_") {
			return true
		}
	}
	return false
}

func isTrace(m types.Mention) bool {
	if m.Section == types.SectionMayContain {
		return true
	}
	return m.Type == types.MentionWarning && hasPhrase(m.Surface, tracePhrases)
}

func hasPhrase(s string, phrases []string) bool {
	folded := textnorm.Fold(s)
	for _, p := range phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// matches reports whether mention i carries key, either as an attached key
// or as a token sequence of its canonical form.
func (l *labelIndex) matches(i int, key string) bool {
	return l.keys[i][key] || textnorm.HasTokenSequence(l.canonicals[i], key)
}

// hit is where a key was found: a mention index (nil when the evidence is
// an unsourced detected allergen) and the supporting text.
type hit struct {
	index    *int
	evidence string
}

func (l *labelIndex) find(indexes []int, key string) (hit, bool) {
	for _, i := range indexes {
		if l.matches(i, key) {
			return hit{index: intPtr(i), evidence: l.evidence(i)}, true
		}
	}
	return hit{}, false
}

// findContent looks for key among content mentions, then among unsourced
// detected allergens.
func (l *labelIndex) findContent(key string) (hit, bool) {
	if key == "" {
		return hit{}, false
	}
	if h, ok := l.find(l.content, key); ok {
		return h, true
	}
	return hit{}, l.unsourced[key]
}

func (l *labelIndex) findTrace(key string) (hit, bool) {
	if key == "" {
		return hit{}, false
	}
	return l.find(l.traces, key)
}

// findCrossContact returns the first mention, or failing that the first
// OCR line, that mentions a shared line or facility.
func (l *labelIndex) findCrossContact(ocrText string) (hit, bool) {
	for i, m := range l.mentions {
		if hasPhrase(m.Surface, crossContactPhrases) {
			return hit{index: intPtr(i), evidence: l.evidence(i)}, true
		}
	}
	for _, line := range strings.Split(ocrText, "\n") {
		if hasPhrase(line, crossContactPhrases) {
			return hit{evidence: strings.TrimSpace(line)}, true
		}
	}
	return hit{}, false
}

func (l *labelIndex) evidence(i int) string {
	if e := l.mentions[i].Evidence; e != "" {
		return e
	}
	return l.mentions[i].Surface
}

func intPtr(i int) *int { return &i }
