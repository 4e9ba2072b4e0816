// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RiskLevel is the final verdict shown to the user. The string values are
// part of the wire contract.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders levels so callers can compare them: low < medium < high.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	}
	return 0
}

// ReasonType tags a RiskReason variant. The string values are part of the
// wire contract.
type ReasonType string

const (
	ReasonContains         ReasonType = "contains"
	ReasonDiet             ReasonType = "diet"
	ReasonIntolerance      ReasonType = "intolerance"
	ReasonTrace            ReasonType = "trace"
	ReasonSameLine         ReasonType = "same_line"
	ReasonENumberUncertain ReasonType = "e_number_uncertain"
	ReasonLowConfidence    ReasonType = "low_confidence"
	ReasonNoProfile        ReasonType = "no_profile"
)

// RiskReason is one human-checkable explanation of a verdict. Which fields
// are set depends on Type.
type RiskReason struct {
	Type ReasonType `json:"type" yaml:"type"`

	// Level is the risk this reason contributes on its own.
	Level RiskLevel `json:"level" yaml:"level"`

	// Allergen is the profile allergen or rule key involved.
	Allergen string `json:"allergen,omitempty" yaml:"allergen,omitempty"`

	// MentionIndex points into IngredientsResult.Mentions when the reason
	// is backed by a specific mention.
	MentionIndex *int `json:"mention_index,omitempty" yaml:"mention_index,omitempty"`

	// Evidence is the label text that triggered the reason.
	Evidence string `json:"evidence,omitempty" yaml:"evidence,omitempty"`

	// Code is the E-number for e_number_uncertain reasons.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Diet and Intolerance name the profile rule for diet/intolerance reasons.
	Diet        string `json:"diet,omitempty" yaml:"diet,omitempty"`
	Intolerance string `json:"intolerance,omitempty" yaml:"intolerance,omitempty"`

	// Confidence is the model confidence for low_confidence reasons.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// RiskAssessment is the verdict plus its ordered reasons.
type RiskAssessment struct {
	Risk    RiskLevel    `json:"risk" yaml:"risk"`
	Reasons []RiskReason `json:"reasons" yaml:"reasons"`
}
