// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mention

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

var (
	// ErrLegacyFormat is returned for extraction output without a mentions
	// array. Callers must reject it; it is never repaired.
	ErrLegacyFormat = errors.New("legacy ingredients result: missing mentions")

	// ErrInvalidResult wraps JSON syntax and schema violations.
	ErrInvalidResult = errors.New("invalid ingredients result")
)

const schemaURL = "ingredients_result.json"

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Decode parses vision-model output into an IngredientsResult after
// checking it against the result schema. Mentions are returned as
// provided; use NormalizeResult to derive canonical keys.
func Decode(data []byte) (*types.IngredientsResult, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidResult)
	}
	if _, ok := raw["mentions"]; !ok {
		return nil, ErrLegacyFormat
	}

	schema, err := resultSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	var result types.IngredientsResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return &result, nil
}

func resultSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(BuildResultJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// BuildResultJSONSchema returns the JSON schema for IngredientsResult as a
// generic map. Unknown properties are allowed so newer extraction output
// still decodes.
func BuildResultJSONSchema() map[string]any {
	stringList := map[string]any{
		"type":  []any{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
	unit := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	mentionSchema := map[string]any{
		"type":     "object",
		"required": []any{"surface", "type", "section"},
		"properties": map[string]any{
			"surface":   map[string]any{"type": "string"},
			"canonical": map[string]any{"type": "string"},
			"type": map[string]any{
				"type": "string",
				"enum": []any{
					string(types.MentionIngredient), string(types.MentionAllergen),
					string(types.MentionClaim), string(types.MentionWarning), string(types.MentionIcon),
				},
			},
			"section": map[string]any{
				"type": "string",
				"enum": []any{
					string(types.SectionIngredients), string(types.SectionMayContain),
					string(types.SectionFrontLabel), string(types.SectionNutrition), string(types.SectionOther),
				},
			},
			"offset": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start": map[string]any{"type": "integer", "minimum": 0},
					"end":   map[string]any{"type": "integer", "minimum": 0},
				},
			},
			"enumbers":          stringList,
			"implies_allergens": stringList,
			"sub_ingredients":   stringList,
			"evidence":          map[string]any{"type": []any{"string", "null"}},
			"parent_canonical":  map[string]any{"type": []any{"string", "null"}},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []any{"mentions"},
		"properties": map[string]any{
			"ocr_text": map[string]any{"type": "string"},
			"language": map[string]any{"type": "string"},
			"quality": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"legibility": map[string]any{"type": "string"},
					"confidence": unit,
				},
			},
			"mentions": map[string]any{"type": "array", "items": mentionSchema},
			"detected_allergens": map[string]any{
				"type": []any{"array", "null"},
				"items": map[string]any{
					"type":     "object",
					"required": []any{"key"},
					"properties": map[string]any{
						"key": map[string]any{"type": "string", "minLength": 1},
						"source_mentions": map[string]any{
							"type":  []any{"array", "null"},
							"items": map[string]any{"type": "integer", "minimum": 0},
						},
						"confidence": unit,
					},
				},
			},
			"warnings":   stringList,
			"confidence": unit,
		},
	}
}
