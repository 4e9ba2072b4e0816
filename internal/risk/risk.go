// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package risk turns an extraction result, its synonym matches and the
// user's profile into a low/medium/high verdict with reasons a person can
// check against the label.
//
// Evaluate is pure: no clock, randomness or I/O. Stored extraction results
// can therefore be re-evaluated against a changed profile and produce the
// same verdict a fresh scan would.
package risk

import (
	"sort"
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/diet"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// DefaultLowConfidenceThreshold is the read confidence below which an
// otherwise clean label is reported as medium.
const DefaultLowConfidenceThreshold = 0.7

// Evaluator holds the injected rule tables.
type Evaluator struct {
	rules     *diet.Rules
	enumbers  map[string]types.ENumberEntry
	threshold float64
}

// NewEvaluator returns an Evaluator. A nil rules uses diet.DefaultRules; a
// threshold of zero or less uses DefaultLowConfidenceThreshold. enumbers is
// keyed by code and copied.
func NewEvaluator(rules *diet.Rules, enumbers map[string]types.ENumberEntry, threshold float64) *Evaluator {
	if rules == nil {
		rules = diet.DefaultRules()
	}
	if threshold <= 0 {
		threshold = DefaultLowConfidenceThreshold
	}
	idx := make(map[string]types.ENumberEntry, len(enumbers))
	for code, e := range enumbers {
		idx[strings.ToUpper(strings.TrimSpace(code))] = e
	}
	return &Evaluator{rules: rules, enumbers: idx, threshold: threshold}
}

// Threshold returns the low-confidence threshold in effect.
func (e *Evaluator) Threshold() float64 { return e.threshold }

// Evaluate computes the verdict. matches maps mention surfaces to their
// synonym matches and may be nil or empty; a failed synonym lookup is
// indistinguishable from no match.
//
// Policy, highest wins:
//  1. a profile allergen with severity >= 2 is present, or a diet or
//     intolerance rule fires: high
//  2. a profile allergen with severity 0-1 is present, a trace warning
//     names a profile allergen, the label mentions a shared line or
//     facility, or a residual-risk E-number may carry a profile allergen:
//     medium
//  3. read confidence is below the threshold: medium
//  4. otherwise low; an empty profile adds an informational reason
func (e *Evaluator) Evaluate(result types.IngredientsResult, profile types.ProfilePayload, matches map[string][]types.SynonymMatch) types.RiskAssessment {
	label := newLabelIndex(result, matches)
	reasons := newReasonSet()

	allergens := profileAllergens(profile)
	contained := make(map[string]bool)

	for _, a := range allergens {
		h, ok := label.findContent(a.key)
		if !ok {
			continue
		}
		level := types.RiskMedium
		if a.severity >= types.SeverityHigh {
			level = types.RiskHigh
		}
		reasons.add(types.RiskReason{
			Type:         types.ReasonContains,
			Level:        level,
			Allergen:     a.key,
			MentionIndex: h.index,
			Evidence:     h.evidence,
		})
		contained[a.key] = true
	}

	for _, d := range profile.Diets {
		e.dietReasons(label, textnorm.Canonicalize(d), reasons)
	}

	for _, in := range profile.IntoleranceKeys() {
		name := textnorm.Canonicalize(in)
		for _, trigger := range e.rules.TriggersForIntolerances([]string{name}) {
			if h, ok := label.findContent(trigger); ok {
				reasons.add(types.RiskReason{
					Type:         types.ReasonIntolerance,
					Level:        types.RiskHigh,
					Allergen:     trigger,
					Intolerance:  name,
					MentionIndex: h.index,
					Evidence:     h.evidence,
				})
			}
		}
	}

	for _, a := range allergens {
		if contained[a.key] {
			continue
		}
		if h, ok := label.findTrace(a.key); ok {
			reasons.add(types.RiskReason{
				Type:         types.ReasonTrace,
				Level:        types.RiskMedium,
				Allergen:     a.key,
				MentionIndex: h.index,
				Evidence:     h.evidence,
			})
		}
	}

	if h, ok := label.findCrossContact(result.OCRText); ok {
		reasons.add(types.RiskReason{
			Type:         types.ReasonSameLine,
			Level:        types.RiskMedium,
			MentionIndex: h.index,
			Evidence:     h.evidence,
		})
	}

	e.eNumberReasons(label, allergens, contained, reasons)

	if reasons.level() == types.RiskLow {
		if conf := readConfidence(result); conf < e.threshold {
			reasons.add(types.RiskReason{
				Type:       types.ReasonLowConfidence,
				Level:      types.RiskMedium,
				Confidence: &conf,
			})
		}
	}

	if profile.IsEmpty() {
		reasons.add(types.RiskReason{Type: types.ReasonNoProfile, Level: types.RiskLow})
	}

	return reasons.assessment()
}

// dietReasons flags blocked keys, blocked terms and forbidden
// co-occurrences for one diet.
func (e *Evaluator) dietReasons(label *labelIndex, name string, reasons *reasonSet) {
	blocked := e.rules.BlockedIngredientsForDiets([]string{name})
	for _, key := range append(blocked, e.rules.BlockedTerms(name)...) {
		if h, ok := label.findContent(key); ok {
			reasons.add(types.RiskReason{
				Type:         types.ReasonDiet,
				Level:        types.RiskHigh,
				Allergen:     key,
				Diet:         name,
				MentionIndex: h.index,
				Evidence:     h.evidence,
			})
		}
	}

	for _, sep := range e.rules.SeparationsFor(name) {
		left, okL := findAny(label, sep.Left)
		right, okR := findAny(label, sep.Right)
		if !okL || !okR {
			continue
		}
		reasons.add(types.RiskReason{
			Type:         types.ReasonDiet,
			Level:        types.RiskHigh,
			Allergen:     textnorm.Canonicalize(sep.Name),
			Diet:         name,
			MentionIndex: left.index,
			Evidence:     left.evidence + " + " + right.evidence,
		})
	}
}

func findAny(label *labelIndex, keys []string) (hit, bool) {
	for _, k := range keys {
		if h, ok := label.findContent(textnorm.Canonicalize(k)); ok {
			return h, true
		}
	}
	return hit{}, false
}

// eNumberReasons reports residual-risk additives that may carry a profile
// allergen the label does not otherwise declare. An additive is resolved
// when its own mention already names one of its linked allergens, as in
// "lecitina de soya (E322)".
func (e *Evaluator) eNumberReasons(label *labelIndex, allergens []profileAllergen, contained map[string]bool, reasons *reasonSet) {
	if len(allergens) == 0 || len(e.enumbers) == 0 {
		return
	}
	inProfile := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		inProfile[a.key] = true
	}

	for _, i := range label.content {
		for _, code := range label.mentions[i].ENumbers {
			entry, ok := e.enumbers[strings.ToUpper(code)]
			if !ok || !entry.ResidualProteinRisk {
				continue
			}
			linked := make([]string, 0, len(entry.LinkedAllergenKeys))
			resolved := false
			for _, k := range entry.LinkedAllergenKeys {
				k = textnorm.Canonicalize(k)
				linked = append(linked, k)
				if label.matches(i, k) {
					resolved = true
				}
			}
			if resolved {
				continue
			}
			for _, k := range linked {
				if !inProfile[k] || contained[k] {
					continue
				}
				reasons.add(types.RiskReason{
					Type:         types.ReasonENumberUncertain,
					Level:        types.RiskMedium,
					Allergen:     k,
					Code:         strings.ToUpper(code),
					MentionIndex: intPtr(i),
					Evidence:     label.evidence(i),
				})
			}
		}
	}
}

// readConfidence prefers the model's read quality and falls back to the
// overall extraction confidence.
func readConfidence(r types.IngredientsResult) float64 {
	if r.Quality.Confidence > 0 {
		return r.Quality.Confidence
	}
	return r.Confidence
}

type profileAllergen struct {
	key      string
	severity int
}

// profileAllergens canonicalizes profile keys in declaration order,
// keeping the highest severity for duplicates.
func profileAllergens(p types.ProfilePayload) []profileAllergen {
	var out []profileAllergen
	pos := make(map[string]int)
	for _, a := range p.Allergens {
		key := textnorm.Canonicalize(a.Key)
		if key == "" {
			continue
		}
		if i, ok := pos[key]; ok {
			out[i].severity = max(out[i].severity, a.Severity)
			continue
		}
		pos[key] = len(out)
		out = append(out, profileAllergen{key: key, severity: a.Severity})
	}
	return out
}

// reasonSet deduplicates reasons by (type, allergen), keeping the first.
type reasonSet struct {
	seen map[string]bool
	list []types.RiskReason
}

func newReasonSet() *reasonSet {
	return &reasonSet{seen: make(map[string]bool)}
}

func (s *reasonSet) add(r types.RiskReason) {
	k := string(r.Type) + "\x00" + r.Allergen
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.list = append(s.list, r)
}

func (s *reasonSet) level() types.RiskLevel {
	level := types.RiskLow
	for _, r := range s.list {
		if r.Level.Rank() > level.Rank() {
			level = r.Level
		}
	}
	return level
}

// typeOrder fixes the presentation order within one level.
var typeOrder = map[types.ReasonType]int{
	types.ReasonContains:         0,
	types.ReasonDiet:             1,
	types.ReasonIntolerance:      2,
	types.ReasonTrace:            3,
	types.ReasonSameLine:         4,
	types.ReasonENumberUncertain: 5,
	types.ReasonLowConfidence:    6,
	types.ReasonNoProfile:        7,
}

func (s *reasonSet) assessment() types.RiskAssessment {
	out := make([]types.RiskReason, len(s.list))
	copy(out, s.list)
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Level.Rank(), out[j].Level.Rank(); ri != rj {
			return ri > rj
		}
		return typeOrder[out[i].Type] < typeOrder[out[j].Type]
	})
	return types.RiskAssessment{Risk: s.level(), Reasons: out}
}
