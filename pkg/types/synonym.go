// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SynonymEntry is one curated dictionary row linking a surface form to an
// allergen key.
type SynonymEntry struct {
	AllergenKey string  `json:"allergen_key" yaml:"allergen_key"`
	Surface     string  `json:"surface" yaml:"surface"`
	Locale      string  `json:"locale" yaml:"locale"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// SynonymMatch is the result of matching a mention surface against the
// synonym dictionary.
type SynonymMatch struct {
	Surface        string  `json:"surface" yaml:"surface"`
	AllergenKey    string  `json:"allergenKey" yaml:"allergen_key"`
	SynonymSurface string  `json:"synonymSurface" yaml:"synonym_surface"`
	Similarity     float64 `json:"similarity" yaml:"similarity"`
	Locale         string  `json:"locale" yaml:"locale"`
	Weight         float64 `json:"weight" yaml:"weight"`
}

// ENumberEntry describes a food additive and the allergens it may carry.
type ENumberEntry struct {
	Code               string   `json:"code" yaml:"code"`
	NameES             string   `json:"name_es" yaml:"name_es"`
	LinkedAllergenKeys []string `json:"linked_allergen_keys" yaml:"linked_allergen_keys"`

	// ResidualProteinRisk marks additives whose source allergen protein may
	// survive processing (e.g. soy lecithin).
	ResidualProteinRisk bool   `json:"residual_protein_risk" yaml:"residual_protein_risk"`
	Notes               string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
