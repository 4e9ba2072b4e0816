// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synonym expands mention surfaces into weighted allergen-key
// candidates by matching them against a curated synonym dictionary.
// Lookups go through the Matcher interface; backends exist for an
// in-memory dictionary, PostgreSQL pg_trgm, a remote RPC endpoint and a
// Redis cache in front of any of them.
package synonym

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

const (
	// DefaultMinSimilarity is the threshold used when the caller passes 0.
	DefaultMinSimilarity = 0.3

	// MaxMatchesPerSurface caps the matches kept for one surface.
	MaxMatchesPerSurface = 5

	defaultConcurrency = 4
)

// Matcher looks up dictionary synonyms similar to query. Implementations
// return at most limit rows with similarity >= minSimilarity, in any order.
type Matcher interface {
	Name() string
	Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error)
}

// Expander runs a Matcher over the surfaces of a mention list.
type Expander struct {
	matcher     Matcher
	log         logging.Logger
	concurrency int
	limit       int
}

// NewExpander returns an Expander issuing at most concurrency lookups at
// once. A nil logger discards lookup failures.
func NewExpander(m Matcher, log logging.Logger, concurrency int) *Expander {
	if log == nil {
		log = logging.NewNop()
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Expander{
		matcher:     m,
		log:         log.Named("synonym"),
		concurrency: concurrency,
		limit:       MaxMatchesPerSurface,
	}
}

// WithLimit returns a copy of e keeping at most n matches per surface.
// Values outside 1..MaxMatchesPerSurface are ignored.
func (e *Expander) WithLimit(n int) *Expander {
	c := *e
	if n > 0 && n <= MaxMatchesPerSurface {
		c.limit = n
	}
	return &c
}

// Expand maps each distinct ingredient or allergen surface to its ranked
// dictionary matches. Surfaces without a match at or above minSimilarity
// are absent from the map. A failed lookup is logged and its surface
// skipped; if every lookup fails the map is empty. Expand never returns an
// error because enrichment must not block a scan.
func (e *Expander) Expand(ctx context.Context, mentions []types.Mention, minSimilarity float64) map[string][]types.SynonymMatch {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	out := make(map[string][]types.SynonymMatch)
	if e == nil || e.matcher == nil {
		return out
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for _, surface := range Surfaces(mentions) {
		surface := surface
		g.Go(func() error {
			rows, err := e.matcher.Match(ctx, surface, minSimilarity, e.limit)
			if err != nil {
				e.log.Warn("synonym lookup failed",
					logging.String("backend", e.matcher.Name()),
					logging.String("surface", surface),
					logging.Err(err))
				return nil
			}
			ranked := rank(surface, rows, minSimilarity, e.limit)
			if len(ranked) == 0 {
				return nil
			}
			mu.Lock()
			out[surface] = ranked
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Surfaces returns the distinct non-blank surfaces of ingredient and
// allergen mentions, in first-seen order.
func Surfaces(mentions []types.Mention) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range mentions {
		if m.Type != types.MentionIngredient && m.Type != types.MentionAllergen {
			continue
		}
		if strings.TrimSpace(m.Surface) == "" || seen[m.Surface] {
			continue
		}
		seen[m.Surface] = true
		out = append(out, m.Surface)
	}
	return out
}

// Rank drops rows below minSimilarity and duplicate (allergen, synonym)
// pairs, stamps surface on each row, and orders them by similarity then
// weight, both descending. At most MaxMatchesPerSurface rows are kept.
func Rank(surface string, rows []types.SynonymMatch, minSimilarity float64) []types.SynonymMatch {
	return rank(surface, rows, minSimilarity, MaxMatchesPerSurface)
}

func rank(surface string, rows []types.SynonymMatch, minSimilarity float64, max int) []types.SynonymMatch {
	seen := make(map[string]bool)
	kept := make([]types.SynonymMatch, 0, len(rows))
	for _, r := range rows {
		if r.Similarity < minSimilarity || r.AllergenKey == "" {
			continue
		}
		key := r.AllergenKey + "\x00" + r.SynonymSurface
		if seen[key] {
			continue
		}
		seen[key] = true
		r.Surface = surface
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.AllergenKey != b.AllergenKey {
			return a.AllergenKey < b.AllergenKey
		}
		return a.SynonymSurface < b.SynonymSurface
	})

	if max > 0 && len(kept) > max {
		kept = kept[:max]
	}
	return kept
}

// AllergenKeys returns the distinct allergen keys across all matches,
// sorted.
func AllergenKeys(matches map[string][]types.SynonymMatch) []string {
	set := make(map[string]struct{})
	for _, rows := range matches {
		for _, r := range rows {
			set[r.AllergenKey] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
