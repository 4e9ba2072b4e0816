// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MentionType classifies a detected span of label text.
type MentionType string

const (
	MentionIngredient MentionType = "ingredient"
	MentionAllergen   MentionType = "allergen"
	MentionClaim      MentionType = "claim"
	MentionWarning    MentionType = "warning"
	MentionIcon       MentionType = "icon"
)

// Valid reports whether t is one of the known mention types.
func (t MentionType) Valid() bool {
	switch t {
	case MentionIngredient, MentionAllergen, MentionClaim, MentionWarning, MentionIcon:
		return true
	}
	return false
}

// Section identifies the label region a mention was read from.
type Section string

const (
	SectionIngredients Section = "ingredients"
	SectionMayContain  Section = "may_contain"
	SectionFrontLabel  Section = "front_label"
	SectionNutrition   Section = "nutrition"
	SectionOther       Section = "other"
)

// Valid reports whether s is one of the known label sections.
func (s Section) Valid() bool {
	switch s {
	case SectionIngredients, SectionMayContain, SectionFrontLabel, SectionNutrition, SectionOther:
		return true
	}
	return false
}

// Offset is a character range into the OCR text. It is used only for
// highlighting in the presentation layer.
type Offset struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Mention is a single detected textual unit of a label.
type Mention struct {
	// Surface is the text exactly as it appeared on the label.
	Surface string `json:"surface" yaml:"surface"`

	// Canonical is the normalized matching key derived from Surface.
	Canonical string `json:"canonical" yaml:"canonical"`

	Type    MentionType `json:"type" yaml:"type"`
	Section Section     `json:"section" yaml:"section"`
	Offset  Offset      `json:"offset" yaml:"offset"`

	// ENumbers holds uppercased, deduplicated additive codes found in Surface.
	ENumbers []string `json:"enumbers" yaml:"enumbers"`

	// ImpliesAllergens lists allergen keys this mention is known to imply.
	ImpliesAllergens []string `json:"implies_allergens" yaml:"implies_allergens"`

	// Evidence is the verbatim snippet supporting ImpliesAllergens.
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"`

	// ParentCanonical links a sub-ingredient to the compound ingredient
	// whose parenthetical list it came from.
	ParentCanonical string `json:"parent_canonical,omitempty" yaml:"parent_canonical,omitempty"`

	// SubIngredients lists the child surfaces of a compound ingredient.
	SubIngredients []string `json:"sub_ingredients,omitempty" yaml:"sub_ingredients,omitempty"`
}

// Quality carries the vision model's self-reported read quality.
type Quality struct {
	Legibility string  `json:"legibility" yaml:"legibility"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// DetectedAllergen is an allergen the extraction asserts is present,
// with indexes into IngredientsResult.Mentions as provenance.
type DetectedAllergen struct {
	Key            string  `json:"key" yaml:"key"`
	SourceMentions []int   `json:"source_mentions" yaml:"source_mentions"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
}

// IngredientsResult is the extraction artifact for one scanned label. It is
// stored verbatim so the risk verdict can be re-derived later.
type IngredientsResult struct {
	OCRText           string             `json:"ocr_text" yaml:"ocr_text"`
	Language          string             `json:"language" yaml:"language"`
	Quality           Quality            `json:"quality" yaml:"quality"`
	Mentions          []Mention          `json:"mentions" yaml:"mentions"`
	DetectedAllergens []DetectedAllergen `json:"detected_allergens" yaml:"detected_allergens"`
	Warnings          []string           `json:"warnings" yaml:"warnings"`
	Confidence        float64            `json:"confidence" yaml:"confidence"`
}
