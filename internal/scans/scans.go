// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scans stores raw extraction results verbatim so a risk verdict
// can be re-derived later against the current profile.
package scans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lukas-andre/alergias-app-sub001/internal/mention"
	"github.com/lukas-andre/alergias-app-sub001/internal/sqlitedb"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// ErrNotFound is returned by Get for an unknown scan ID.
var ErrNotFound = errors.New("scan not found")

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Now is the clock used to stamp new scans. Tests may override it.
var Now = func() time.Time { return time.Now().UTC() }

// Scan is one stored extraction result with summary columns for listing.
type Scan struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Language     string          `json:"language"`
	Confidence   float64         `json:"confidence"`
	MentionCount int             `json:"mention_count"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// Result decodes the stored raw JSON.
func (s *Scan) Result() (*types.IngredientsResult, error) {
	return mention.Decode(s.Raw)
}

// Store persists scans in the shared SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore creates the scans table in db if it does not exist.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	err := sqlitedb.Exec(ctx, db, []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0,
			mention_count INTEGER NOT NULL DEFAULT 0,
			raw TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at)`,
	})
	if err != nil {
		return nil, fmt.Errorf("creating scans schema: %w", err)
	}
	return s, nil
}

// Save validates raw as an IngredientsResult and stores it unchanged under
// a new ID. Legacy and invalid results are rejected with the decoder's
// error.
func (s *Store) Save(ctx context.Context, raw []byte) (*Scan, error) {
	result, err := mention.Decode(raw)
	if err != nil {
		return nil, err
	}

	scan := &Scan{
		ID:           uuid.NewString(),
		CreatedAt:    Now().UTC(),
		Language:     result.Language,
		Confidence:   result.Quality.Confidence,
		MentionCount: len(result.Mentions),
		Raw:          append(json.RawMessage(nil), raw...),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, created_at, language, confidence, mention_count, raw) VALUES (?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.CreatedAt.Format(timeLayout), scan.Language, scan.Confidence, scan.MentionCount, string(raw))
	if err != nil {
		return nil, fmt.Errorf("inserting scan: %w", err)
	}
	return scan, nil
}

// Get returns the scan with id, including its raw JSON.
func (s *Store) Get(ctx context.Context, id string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, language, confidence, mention_count, raw FROM scans WHERE id = ?`, id)

	var scan Scan
	var created, raw string
	err := row.Scan(&scan.ID, &created, &scan.Language, &scan.Confidence, &scan.MentionCount, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying scan %s: %w", id, err)
	}
	if scan.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing created_at for %s: %w", id, err)
	}
	scan.Raw = json.RawMessage(raw)
	return &scan, nil
}

// List returns up to limit scans, newest first, without raw JSON. A limit
// of zero or less lists everything.
func (s *Store) List(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, language, confidence, mention_count FROM scans
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close()

	var out []Scan
	for rows.Next() {
		var scan Scan
		var created string
		if err := rows.Scan(&scan.ID, &created, &scan.Language, &scan.Confidence, &scan.MentionCount); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		if scan.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at for %s: %w", scan.ID, err)
		}
		out = append(out, scan)
	}
	return out, rows.Err()
}
