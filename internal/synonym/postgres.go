// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synonym

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// DefaultSynonymTable is the dictionary table queried by PostgresMatcher.
const DefaultSynonymTable = "allergen_synonyms"

// PostgresMatcher runs pg_trgm similarity() against a synonym table with
// columns allergen_key, surface, locale and weight. The pg_trgm extension
// must be installed.
type PostgresMatcher struct {
	pool  *pgxpool.Pool
	table string
}

// OpenPostgres connects a pool to dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string, dialTimeout time.Duration) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "alergias"

	if dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// NewPostgresMatcher queries table through pool. An empty table name uses
// DefaultSynonymTable.
func NewPostgresMatcher(pool *pgxpool.Pool, table string) *PostgresMatcher {
	if table == "" {
		table = DefaultSynonymTable
	}
	return &PostgresMatcher{pool: pool, table: table}
}

// Name returns the backend identifier.
func (m *PostgresMatcher) Name() string { return "postgres" }

// Match returns the rows whose surface is trigram-similar to query.
func (m *PostgresMatcher) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	if limit <= 0 {
		limit = MaxMatchesPerSurface
	}
	sql := fmt.Sprintf(`SELECT allergen_key, surface, similarity(surface, $1) AS sim,
			COALESCE(locale, ''), COALESCE(weight, 1.0)
		FROM %s
		WHERE similarity(surface, $1) >= $2
		ORDER BY sim DESC, weight DESC, allergen_key
		LIMIT $3`, pgx.Identifier{m.table}.Sanitize())

	rows, err := m.pool.Query(ctx, sql, query, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", m.table, err)
	}
	defer rows.Close()

	var out []types.SynonymMatch
	for rows.Next() {
		var r types.SynonymMatch
		var sim float32
		if err := rows.Scan(&r.AllergenKey, &r.SynonymSurface, &sim, &r.Locale, &r.Weight); err != nil {
			return nil, fmt.Errorf("scanning synonym row: %w", err)
		}
		r.Surface = query
		r.Similarity = float64(sim)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating synonym rows: %w", err)
	}
	return out, nil
}
