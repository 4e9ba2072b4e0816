// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one label through every stage: decode, normalize,
// hierarchy expansion, synonym matching and risk evaluation.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/lukas-andre/alergias-app-sub001/internal/hierarchy"
	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/mention"
	"github.com/lukas-andre/alergias-app-sub001/internal/risk"
	"github.com/lukas-andre/alergias-app-sub001/internal/segment"
	"github.com/lukas-andre/alergias-app-sub001/internal/synonym"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// Report is the output artifact: the expanded result, the synonym matches
// used, and the verdict.
type Report struct {
	Result            types.IngredientsResult          `json:"result"`
	Matches           map[string][]types.SynonymMatch `json:"synonym_matches"`
	Assessment        types.RiskAssessment             `json:"assessment"`
	HierarchyWarnings []string                         `json:"hierarchy_warnings,omitempty"`
}

// Pipeline wires the stages together. A nil expander skips synonym
// matching, which the evaluator treats the same as finding nothing.
type Pipeline struct {
	expander      *synonym.Expander
	evaluator     *risk.Evaluator
	minSimilarity float64
	log           logging.Logger
}

// New returns a Pipeline. minSimilarity of zero uses the synonym default.
func New(expander *synonym.Expander, evaluator *risk.Evaluator, minSimilarity float64, log logging.Logger) *Pipeline {
	if evaluator == nil {
		evaluator = risk.NewEvaluator(nil, nil, 0)
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{
		expander:      expander,
		evaluator:     evaluator,
		minSimilarity: minSimilarity,
		log:           log.Named("pipeline"),
	}
}

// Analyze decodes raw vision output and evaluates it against profile.
// Legacy and invalid input is rejected with the decoder's error.
func (p *Pipeline) Analyze(ctx context.Context, raw []byte, profile types.ProfilePayload) (*Report, error) {
	result, err := mention.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding ingredients result: %w", err)
	}
	return p.AnalyzeResult(ctx, *result, profile), nil
}

// AnalyzeText segments plain OCR text, synthesizes mentions from it and
// evaluates them. Use it when no structured vision output is available.
func (p *Pipeline) AnalyzeText(ctx context.Context, text string, profile types.ProfilePayload) *Report {
	seg := segment.ExtractIngredients(text)
	p.log.Debug("segmented text",
		logging.Bool("header", seg.HadHeaderMatch),
		logging.Int("items", len(seg.Items)),
		logging.Int("traces", len(seg.Traces)))
	return p.AnalyzeResult(ctx, mention.FromSegment(text, seg), profile)
}

// AnalyzeResult runs the stages after decoding. It never fails: hierarchy
// problems are reported as warnings and synonym failures degrade to fewer
// matches.
func (p *Pipeline) AnalyzeResult(ctx context.Context, result types.IngredientsResult, profile types.ProfilePayload) *Report {
	expanded := hierarchy.PostProcess(mention.NormalizeResult(result))

	warnings := hierarchy.Validate(expanded.Mentions)
	for _, w := range warnings {
		p.log.Debug("hierarchy warning", logging.String("warning", w))
	}

	matches := map[string][]types.SynonymMatch{}
	if p.expander != nil {
		matches = p.expander.Expand(ctx, expanded.Mentions, p.minSimilarity)
	}

	assessment := p.evaluator.Evaluate(expanded, profile, matches)
	p.log.Debug("evaluated label",
		logging.Int("mentions", len(expanded.Mentions)),
		logging.Int("matched_surfaces", len(matches)),
		logging.String("risk", string(assessment.Risk)),
		logging.Int("reasons", len(assessment.Reasons)))

	return &Report{
		Result:            expanded,
		Matches:           matches,
		Assessment:        assessment,
		HierarchyWarnings: warnings,
	}
}

// ReadProfile loads a ProfilePayload from a JSON or YAML file.
func ReadProfile(path string) (types.ProfilePayload, error) {
	var profile types.ProfilePayload
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("reading profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return profile, nil
}
