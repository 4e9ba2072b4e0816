// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dictionary persists the allergen synonym and E-number
// dictionary in SQLite, imports and exports it as seed files, and answers
// fuzzy synonym lookups from the stored rows.
package dictionary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/lukas-andre/alergias-app-sub001/internal/sqlitedb"
	"github.com/lukas-andre/alergias-app-sub001/internal/synonym"
	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// Store is the SQLite-backed dictionary. It implements synonym.Matcher.
type Store struct {
	db *sql.DB
}

var _ synonym.Matcher = (*Store)(nil)

// NewStore creates the dictionary tables in db if they do not exist.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.createSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating dictionary schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	return sqlitedb.Exec(ctx, s.db, []string{
		`CREATE TABLE IF NOT EXISTS synonyms (
			allergen_key TEXT NOT NULL,
			surface TEXT NOT NULL,
			canonical TEXT NOT NULL,
			locale TEXT NOT NULL DEFAULT 'es',
			weight REAL NOT NULL DEFAULT 1.0,
			PRIMARY KEY (allergen_key, canonical, locale)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_synonyms_canonical ON synonyms(canonical)`,
		`CREATE TABLE IF NOT EXISTS e_numbers (
			code TEXT PRIMARY KEY,
			name_es TEXT NOT NULL DEFAULT '',
			linked_allergen_keys TEXT NOT NULL DEFAULT '[]',
			residual_protein_risk INTEGER NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT ''
		)`,
	})
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
}

// Total returns the number of rows processed.
func (s ImportSummary) Total() int {
	return s.Inserted + s.Updated + s.Unchanged + s.Failed
}

// Import upserts every synonym and E-number in seed. Rows are keyed by
// (allergen_key, canonical surface, locale) and by code, so importing the
// same seed twice leaves the store unchanged. Invalid rows are reported to
// w and counted as failed; they do not abort the import.
func (s *Store) Import(ctx context.Context, seed *Seed, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, raw := range seed.Synonyms {
		e, ok := normalizeEntry(raw)
		if !ok {
			fmt.Fprintf(w, "failed  synonym %q -> %q: allergen_key and surface are required\n", raw.Surface, raw.AllergenKey)
			summary.Failed++
			continue
		}
		status, err := upsertSynonym(ctx, tx, e)
		if err != nil {
			return summary, err
		}
		count(&summary, status)
	}

	for _, raw := range seed.ENumbers {
		code, ok := NormalizeCode(raw.Code)
		if !ok {
			fmt.Fprintf(w, "failed  e-number %q: code must be E followed by 3-4 digits\n", raw.Code)
			summary.Failed++
			continue
		}
		raw.Code = code
		status, err := upsertENumber(ctx, tx, raw)
		if err != nil {
			return summary, err
		}
		count(&summary, status)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing import: %w", err)
	}

	fmt.Fprintf(w, "inserted: %d, updated: %d, unchanged: %d, failed: %d\n",
		summary.Inserted, summary.Updated, summary.Unchanged, summary.Failed)
	return summary, nil
}

// EnsureSeeded imports the built-in seed when the store has no synonyms.
func (s *Store) EnsureSeeded(ctx context.Context, w io.Writer) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM synonyms`).Scan(&n); err != nil {
		return fmt.Errorf("counting synonyms: %w", err)
	}
	if n > 0 {
		return nil
	}
	seed, err := DefaultSeed()
	if err != nil {
		return err
	}
	_, err = s.Import(ctx, seed, w)
	return err
}

type upsertStatus int

const (
	statusInserted upsertStatus = iota
	statusUpdated
	statusUnchanged
)

func count(s *ImportSummary, status upsertStatus) {
	switch status {
	case statusInserted:
		s.Inserted++
	case statusUpdated:
		s.Updated++
	default:
		s.Unchanged++
	}
}

func upsertSynonym(ctx context.Context, tx *sql.Tx, e types.SynonymEntry) (upsertStatus, error) {
	canonical := textnorm.Canonicalize(e.Surface)

	var surface string
	var weight float64
	err := tx.QueryRowContext(ctx,
		`SELECT surface, weight FROM synonyms WHERE allergen_key = ? AND canonical = ? AND locale = ?`,
		e.AllergenKey, canonical, e.Locale,
	).Scan(&surface, &weight)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO synonyms (allergen_key, surface, canonical, locale, weight) VALUES (?, ?, ?, ?, ?)`,
			e.AllergenKey, e.Surface, canonical, e.Locale, e.Weight)
		if err != nil {
			return 0, fmt.Errorf("inserting synonym %q: %w", e.Surface, err)
		}
		return statusInserted, nil
	case err != nil:
		return 0, fmt.Errorf("looking up synonym %q: %w", e.Surface, err)
	case surface == e.Surface && weight == e.Weight:
		return statusUnchanged, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE synonyms SET surface = ?, weight = ? WHERE allergen_key = ? AND canonical = ? AND locale = ?`,
		e.Surface, e.Weight, e.AllergenKey, canonical, e.Locale)
	if err != nil {
		return 0, fmt.Errorf("updating synonym %q: %w", e.Surface, err)
	}
	return statusUpdated, nil
}

func upsertENumber(ctx context.Context, tx *sql.Tx, e types.ENumberEntry) (upsertStatus, error) {
	keys := make([]string, 0, len(e.LinkedAllergenKeys))
	for _, k := range e.LinkedAllergenKeys {
		if c := textnorm.Canonicalize(k); c != "" {
			keys = append(keys, c)
		}
	}
	linked, _ := json.Marshal(keys)

	var name, storedLinked, notes string
	var residual bool
	err := tx.QueryRowContext(ctx,
		`SELECT name_es, linked_allergen_keys, residual_protein_risk, notes FROM e_numbers WHERE code = ?`, e.Code,
	).Scan(&name, &storedLinked, &residual, &notes)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO e_numbers (code, name_es, linked_allergen_keys, residual_protein_risk, notes) VALUES (?, ?, ?, ?, ?)`,
			e.Code, e.NameES, string(linked), e.ResidualProteinRisk, e.Notes)
		if err != nil {
			return 0, fmt.Errorf("inserting e-number %s: %w", e.Code, err)
		}
		return statusInserted, nil
	case err != nil:
		return 0, fmt.Errorf("looking up e-number %s: %w", e.Code, err)
	case name == e.NameES && storedLinked == string(linked) && residual == e.ResidualProteinRisk && notes == e.Notes:
		return statusUnchanged, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE e_numbers SET name_es = ?, linked_allergen_keys = ?, residual_protein_risk = ?, notes = ? WHERE code = ?`,
		e.NameES, string(linked), e.ResidualProteinRisk, e.Notes, e.Code)
	if err != nil {
		return 0, fmt.Errorf("updating e-number %s: %w", e.Code, err)
	}
	return statusUpdated, nil
}

// Synonyms returns all stored synonyms ordered by allergen key then surface.
func (s *Store) Synonyms(ctx context.Context) ([]types.SynonymEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT allergen_key, surface, locale, weight FROM synonyms ORDER BY allergen_key, canonical, locale`)
	if err != nil {
		return nil, fmt.Errorf("querying synonyms: %w", err)
	}
	defer rows.Close()

	var out []types.SynonymEntry
	for rows.Next() {
		var e types.SynonymEntry
		if err := rows.Scan(&e.AllergenKey, &e.Surface, &e.Locale, &e.Weight); err != nil {
			return nil, fmt.Errorf("scanning synonym: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ENumbers returns all stored E-number entries ordered by code.
func (s *Store) ENumbers(ctx context.Context) ([]types.ENumberEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name_es, linked_allergen_keys, residual_protein_risk, notes FROM e_numbers`)
	if err != nil {
		return nil, fmt.Errorf("querying e-numbers: %w", err)
	}
	defer rows.Close()

	var out []types.ENumberEntry
	for rows.Next() {
		var e types.ENumberEntry
		var linked string
		if err := rows.Scan(&e.Code, &e.NameES, &linked, &e.ResidualProteinRisk, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning e-number: %w", err)
		}
		if err := json.Unmarshal([]byte(linked), &e.LinkedAllergenKeys); err != nil {
			return nil, fmt.Errorf("decoding linked allergens for %s: %w", e.Code, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return codeLess(out[i].Code, out[j].Code) })
	return out, nil
}

// codeLess orders E-numbers numerically: E322 before E1105.
func codeLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Name returns the backend identifier.
func (s *Store) Name() string { return "sqlite" }

// Match scores the stored synonyms against query with trigram similarity.
func (s *Store) Match(ctx context.Context, query string, minSimilarity float64, limit int) ([]types.SynonymMatch, error) {
	entries, err := s.Synonyms(ctx)
	if err != nil {
		return nil, err
	}
	return synonym.NewTrigramMatcher(entries).Match(ctx, query, minSimilarity, limit)
}

// Export returns the full dictionary as a Seed.
func (s *Store) Export(ctx context.Context) (*Seed, error) {
	syns, err := s.Synonyms(ctx)
	if err != nil {
		return nil, err
	}
	enums, err := s.ENumbers(ctx)
	if err != nil {
		return nil, err
	}
	return &Seed{Synonyms: syns, ENumbers: enums}, nil
}

// ExportYAML writes the dictionary to w in seed format.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	seed, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seed); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the dictionary to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	seed, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(seed); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}
