// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Allergen severities as stored in a user profile.
const (
	SeverityMild        = 0
	SeverityModerate    = 1
	SeverityHigh        = 2
	SeverityAnaphylaxis = 3
)

// ProfileAllergen is an allergen the user declared, with severity 0..3.
type ProfileAllergen struct {
	Key      string `json:"key" yaml:"key"`
	Severity int    `json:"severity" yaml:"severity"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ProfileIntolerance is an intolerance the user declared.
type ProfileIntolerance struct {
	Key      string `json:"key" yaml:"key"`
	Severity *int   `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// ProfilePayload is a read-only snapshot of the user's dietary profile.
type ProfilePayload struct {
	Allergens    []ProfileAllergen    `json:"allergens" yaml:"allergens"`
	Diets        []string             `json:"diets" yaml:"diets"`
	Intolerances []ProfileIntolerance `json:"intolerances" yaml:"intolerances"`
}

// IsEmpty reports whether the user has configured nothing at all.
func (p ProfilePayload) IsEmpty() bool {
	return len(p.Allergens) == 0 && len(p.Diets) == 0 && len(p.Intolerances) == 0
}

// IntoleranceKeys returns the declared intolerance keys in order.
func (p ProfilePayload) IntoleranceKeys() []string {
	keys := make([]string, 0, len(p.Intolerances))
	for _, in := range p.Intolerances {
		keys = append(keys, in.Key)
	}
	return keys
}
