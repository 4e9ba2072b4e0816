// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dictionary

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the file format for dictionary import and export.
type Seed struct {
	Synonyms []types.SynonymEntry `json:"synonyms" yaml:"synonyms"`
	ENumbers []types.ENumberEntry `json:"e_numbers" yaml:"e_numbers"`
}

// DefaultSeed returns the built-in dictionary.
func DefaultSeed() (*Seed, error) {
	seed, err := ParseSeed(defaultSeed, "yaml")
	if err != nil {
		return nil, fmt.Errorf("parsing built-in seed: %w", err)
	}
	return seed, nil
}

// ParseSeed decodes data as "json" or "yaml".
func ParseSeed(data []byte, format string) (*Seed, error) {
	var seed Seed
	var err error
	switch strings.ToLower(format) {
	case "json":
		err = json.Unmarshal(data, &seed)
	case "yaml", "yml", "":
		err = yaml.Unmarshal(data, &seed)
	default:
		return nil, fmt.Errorf("unsupported seed format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return &seed, nil
}

// ReadSeedFile reads a seed from path, choosing the decoder by extension.
func ReadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	seed, err := ParseSeed(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return seed, nil
}

// ENumberIndex maps each E-number code to its entry.
func (s *Seed) ENumberIndex() map[string]types.ENumberEntry {
	idx := make(map[string]types.ENumberEntry, len(s.ENumbers))
	for _, e := range s.ENumbers {
		if code, ok := NormalizeCode(e.Code); ok {
			e.Code = code
			idx[code] = e
		}
	}
	return idx
}

// NormalizeCode uppercases an E-number code and checks its shape
// (E followed by three or four digits).
func NormalizeCode(code string) (string, bool) {
	codes := textnorm.ExtractENumbers(strings.TrimSpace(code))
	if len(codes) != 1 || !strings.EqualFold(codes[0], strings.TrimSpace(code)) {
		return "", false
	}
	return codes[0], true
}

// normalizeEntry fills defaults and canonicalizes the allergen key. It
// returns false for rows that cannot be stored.
func normalizeEntry(e types.SynonymEntry) (types.SynonymEntry, bool) {
	e.AllergenKey = textnorm.Canonicalize(e.AllergenKey)
	e.Surface = strings.TrimSpace(e.Surface)
	if e.AllergenKey == "" || textnorm.Canonicalize(e.Surface) == "" {
		return e, false
	}
	if e.Locale == "" {
		e.Locale = "es"
	}
	if e.Weight <= 0 {
		e.Weight = 1.0
	}
	return e, true
}
