// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diet holds the dietary rule tables: which allergen or ingredient
// keys a diet blocks and which ingredient keys trigger an intolerance.
// Rules are plain data, loaded once and injected into the risk evaluator.
package diet

import (
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
)

// Separation names two groups of ingredient keys that a diet forbids in
// the same product, such as meat and dairy for kosher.
type Separation struct {
	Name  string   `yaml:"name" json:"name"`
	Left  []string `yaml:"left" json:"left"`
	Right []string `yaml:"right" json:"right"`
}

// Rules is the full rule set. DietBlocks and IntoleranceTriggers are keyed
// lookups against allergen/ingredient keys. TermBlocks and Separations
// cover diets whose logic is not a plain allergen list (halal, kosher);
// their terms are matched against mention canonicals by the evaluator.
type Rules struct {
	DietBlocks          map[string][]string     `yaml:"diet_blocks" json:"diet_blocks"`
	IntoleranceTriggers map[string][]string     `yaml:"intolerance_triggers" json:"intolerance_triggers"`
	TermBlocks          map[string][]string     `yaml:"term_blocks" json:"term_blocks"`
	Separations         map[string][]Separation `yaml:"separations" json:"separations"`
}

// DefaultRules returns the built-in rule set. Every call returns a fresh
// copy, so callers may modify it.
func DefaultRules() *Rules {
	return &Rules{
		DietBlocks: map[string][]string{
			"vegano": {
				"leche", "huevo", "pescado", "crustaceos", "moluscos", "miel",
				"carne", "gelatina", "lactosa", "caseina", "suero_de_leche",
			},
			"vegetariano":  {"carne", "pescado", "crustaceos", "moluscos", "gelatina"},
			"pescetariano": {"carne", "gelatina"},
			"celiaco":      {"gluten", "trigo", "cebada", "centeno", "avena"},
			"sin_gluten":   {"gluten", "trigo", "cebada", "centeno", "avena"},
			"sin_lactosa":  {"lactosa", "leche", "suero_de_leche"},
			"halal":        {},
			"kosher":       {},
		},
		IntoleranceTriggers: map[string][]string{
			"lactosa":   {"lactosa", "leche", "suero_de_leche", "leche_en_polvo", "crema", "mantequilla"},
			"fructosa":  {"fructosa", "jarabe_de_maiz", "miel", "sorbitol", "agave"},
			"fodmap":    {"trigo", "cebolla", "ajo", "lactosa", "fructosa", "sorbitol", "manitol", "inulina", "legumbres"},
			"histamina": {"vino", "queso_madurado", "embutidos", "vinagre", "fermentados", "atun"},
			"sorbitol":  {"sorbitol", "e420"},
		},
		TermBlocks: map[string][]string{
			"halal":  {"cerdo", "tocino", "manteca_de_cerdo", "jamon", "alcohol", "vino", "licor", "gelatina", "e120"},
			"kosher": {"cerdo", "tocino", "jamon", "crustaceos", "moluscos", "camaron", "mariscos"},
		},
		Separations: map[string][]Separation{
			"kosher": {{
				Name:  "meat_dairy",
				Left:  []string{"carne", "pollo", "vacuno", "res", "cordero"},
				Right: []string{"leche", "queso", "mantequilla", "crema", "suero_de_leche"},
			}},
		},
	}
}

// LoadRules reads a YAML rule file. Tables missing from the file fall back
// to the defaults; a table present in the file replaces the default one.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	rules := DefaultRules()
	if file.DietBlocks != nil {
		rules.DietBlocks = file.DietBlocks
	}
	if file.IntoleranceTriggers != nil {
		rules.IntoleranceTriggers = file.IntoleranceTriggers
	}
	if file.TermBlocks != nil {
		rules.TermBlocks = file.TermBlocks
	}
	if file.Separations != nil {
		rules.Separations = file.Separations
	}
	return rules, nil
}

// IsBlockedByDiet reports whether diet unconditionally blocks key.
// Keys are compared in canonical form.
func (r *Rules) IsBlockedByDiet(diet, key string) bool {
	return contains(r.DietBlocks[textnorm.Canonicalize(diet)], key)
}

// TriggersIntolerance reports whether key is a trigger for intolerance.
func (r *Rules) TriggersIntolerance(intolerance, key string) bool {
	return contains(r.IntoleranceTriggers[textnorm.Canonicalize(intolerance)], key)
}

// BlockedIngredientsForDiets returns the sorted union of keys blocked by
// any of diets.
func (r *Rules) BlockedIngredientsForDiets(diets []string) []string {
	return union(r.DietBlocks, diets)
}

// TriggersForIntolerances returns the sorted union of trigger keys for any
// of intolerances.
func (r *Rules) TriggersForIntolerances(intolerances []string) []string {
	return union(r.IntoleranceTriggers, intolerances)
}

// BlockedTerms returns the canonical ingredient terms diet forbids by name,
// such as pork for halal.
func (r *Rules) BlockedTerms(diet string) []string {
	terms := r.TermBlocks[textnorm.Canonicalize(diet)]
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if c := textnorm.Canonicalize(t); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// SeparationsFor returns the co-occurrence rules for diet.
func (r *Rules) SeparationsFor(diet string) []Separation {
	return r.Separations[textnorm.Canonicalize(diet)]
}

func contains(list []string, key string) bool {
	want := textnorm.Canonicalize(key)
	if want == "" {
		return false
	}
	for _, k := range list {
		if textnorm.Canonicalize(k) == want {
			return true
		}
	}
	return false
}

func union(table map[string][]string, names []string) []string {
	set := make(map[string]struct{})
	for _, name := range names {
		for _, k := range table[textnorm.Canonicalize(name)] {
			set[textnorm.Canonicalize(k)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
