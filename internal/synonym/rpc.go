// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synonym

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/httputil"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// DefaultRPCFunction is the remote function name used when none is set.
const DefaultRPCFunction = "match_allergen_synonyms"

// RPCMatcher calls a remote fuzzy-match function over HTTP:
// POST {BaseURL}/rest/v1/rpc/{Function} with a JSON body of query,
// min_similarity and limit.
type RPCMatcher struct {
	Client   *http.Client
	BaseURL  string
	Function string
	APIKey   string

	// MaxRetries bounds retries on 429/503; 0 uses the httputil default.
	MaxRetries int
}

type rpcRequest struct {
	Query         string  `json:"query"`
	MinSimilarity float64 `json:"min_similarity"`
	Limit         int     `json:"limit"`
}

type rpcRow struct {
	AllergenKey    string   `json:"allergen_key"`
	SynonymSurface string   `json:"synonym_surface"`
	Similarity     float64  `json:"similarity"`
	Locale         string   `json:"locale"`
	Weight         *float64 `json:"weight"`
}

// Name returns the backend identifier.
func (m *RPCMatcher) Name() string { return "rpc" }

// Match posts the lookup and decodes the returned rows.
func (m *RPCMatcher) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	if m.BaseURL == "" {
		return nil, fmt.Errorf("rpc matcher: base URL not configured")
	}
	fn := m.Function
	if fn == "" {
		fn = DefaultRPCFunction
	}
	if limit <= 0 {
		limit = MaxMatchesPerSurface
	}

	body, err := json.Marshal(rpcRequest{Query: query, MinSimilarity: minSimilarity, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("encoding rpc request: %w", err)
	}

	endpoint := strings.TrimRight(m.BaseURL, "/") + "/rest/v1/rpc/" + fn
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if m.APIKey != "" {
		req.Header.Set("apikey", m.APIKey)
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}

	client := m.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, m.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("synonym rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("synonym rpc returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var rows []rpcRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("parsing synonym rpc response: %w", err)
	}

	out := make([]types.SynonymMatch, 0, len(rows))
	for _, r := range rows {
		weight := 1.0
		if r.Weight != nil {
			weight = *r.Weight
		}
		out = append(out, types.SynonymMatch{
			Surface:        query,
			AllergenKey:    r.AllergenKey,
			SynonymSurface: r.SynonymSurface,
			Similarity:     r.Similarity,
			Locale:         r.Locale,
			Weight:         weight,
		})
	}
	return out, nil
}
