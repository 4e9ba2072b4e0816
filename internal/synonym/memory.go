// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synonym

import (
	"context"
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// TrigramMatcher scores an in-memory dictionary with pg_trgm-compatible
// trigram similarity.
type TrigramMatcher struct {
	entries []types.SynonymEntry
}

// NewTrigramMatcher returns a matcher over a copy of entries.
func NewTrigramMatcher(entries []types.SynonymEntry) *TrigramMatcher {
	return &TrigramMatcher{entries: append([]types.SynonymEntry(nil), entries...)}
}

// Name returns the backend identifier.
func (m *TrigramMatcher) Name() string { return "memory" }

// Match returns up to limit entries whose similarity to query is at least
// minSimilarity, best first.
func (m *TrigramMatcher) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []types.SynonymMatch
	for _, e := range m.entries {
		sim := textnorm.Similarity(query, e.Surface)
		if sim < minSimilarity || sim == 0 {
			continue
		}
		rows = append(rows, entryMatch(query, e, sim))
	}
	return rank(query, rows, minSimilarity, limit), nil
}

// ExactMatcher matches by case- and accent-insensitive substring
// containment in either direction and scores every hit 1.0. "leche"
// therefore matches "leche en polvo" as strongly as "leche" itself.
type ExactMatcher struct {
	entries []types.SynonymEntry
}

// NewExactMatcher returns a matcher over a copy of entries.
func NewExactMatcher(entries []types.SynonymEntry) *ExactMatcher {
	return &ExactMatcher{entries: append([]types.SynonymEntry(nil), entries...)}
}

// Name returns the backend identifier.
func (m *ExactMatcher) Name() string { return "exact" }

// Match ignores minSimilarity beyond the trivial 1.0 >= threshold check.
func (m *ExactMatcher) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.TrimSpace(textnorm.Fold(query))
	if q == "" || minSimilarity > 1 {
		return nil, nil
	}
	var rows []types.SynonymMatch
	for _, e := range m.entries {
		s := strings.TrimSpace(textnorm.Fold(e.Surface))
		if s == "" {
			continue
		}
		if strings.Contains(q, s) || strings.Contains(s, q) {
			rows = append(rows, entryMatch(query, e, 1.0))
		}
	}
	return rank(query, rows, minSimilarity, limit), nil
}

// ExpandExact is the fallback used when fuzzy matching is unavailable: it
// expands mentions against entries with an ExactMatcher.
func ExpandExact(ctx context.Context, mentions []types.Mention, entries []types.SynonymEntry, log logging.Logger) map[string][]types.SynonymMatch {
	return NewExpander(NewExactMatcher(entries), log, 1).Expand(ctx, mentions, 1.0)
}

func entryMatch(query string, e types.SynonymEntry, sim float64) types.SynonymMatch {
	return types.SynonymMatch{
		Surface:        query,
		AllergenKey:    e.AllergenKey,
		SynonymSurface: e.Surface,
		Similarity:     sim,
		Locale:         e.Locale,
		Weight:         e.Weight,
	}
}
