// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIngredients_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n"} {
		seg := ExtractIngredients(in)
		assert.False(t, seg.HadHeaderMatch)
		assert.Empty(t, seg.Header)
		assert.Empty(t, seg.RawBlock)
		assert.Empty(t, seg.Items)
		assert.Empty(t, seg.Traces)
	}
}

func TestExtractIngredients_NoHeader(t *testing.T) {
	seg := ExtractIngredients("Solo texto sin seccion")

	assert.False(t, seg.HadHeaderMatch)
	assert.Equal(t, []string{"Solo texto sin seccion"}, seg.Items)
	assert.Empty(t, seg.Traces)
}

func TestExtractIngredients_DepthSafeSplit(t *testing.T) {
	seg := ExtractIngredients("INGREDIENTES: Chocolate (leche, cacao, E322), Azúcar")

	require.True(t, seg.HadHeaderMatch)
	assert.Equal(t, "INGREDIENTES", seg.Header)
	assert.Equal(t, []string{"Chocolate (leche, cacao, E322)", "Azúcar"}, seg.Items)
}

func TestExtractIngredients_TraceExtraction(t *testing.T) {
	seg := ExtractIngredients("INGREDIENTES: Harina. Puede contener trazas de maní.")

	require.Len(t, seg.Traces, 1)
	assert.Equal(t, "Puede contener trazas de maní", seg.Traces[0])
	assert.True(t, strings.EqualFold(seg.Traces[0], "puede contener trazas de maní"))
}

func TestExtractIngredients_MultiLineBlockStopsAtSection(t *testing.T) {
	text := `GALLETAS DE AVENA
Ingredientes:
harina de trigo, azúcar,
aceite vegetal (maravilla; palma), avena
ALÉRGENOS: contiene gluten.
PUEDE CONTENER trazas de soya, maní.
INFORMACIÓN NUTRICIONAL`

	seg := ExtractIngredients(text)

	require.True(t, seg.HadHeaderMatch)
	assert.Equal(t, "Ingredientes", seg.Header)
	assert.Equal(t, "harina de trigo, azúcar,\naceite vegetal (maravilla; palma), avena", seg.RawBlock)
	assert.Equal(t, []string{"harina de trigo", "azúcar", "aceite vegetal (maravilla; palma)", "avena"}, seg.Items)
	assert.Equal(t, []string{"PUEDE CONTENER trazas de soya"}, seg.Traces)
}

func TestExtractIngredients_TracesIgnoreLotAndNutrition(t *testing.T) {
	text := "INGREDIENTES: arroz, sal\nLOTE 22\nplanta certificada, no contiene trazas de gluten detectables\n" +
		"INFORMACIÓN NUTRICIONAL\nPorción 30 g; puede contener variaciones de color"

	seg := ExtractIngredients(text)

	assert.Equal(t, "arroz, sal", seg.RawBlock)
	assert.Empty(t, seg.Traces)
}

func TestExtractIngredients_TracesInAllergenSection(t *testing.T) {
	text := "INGREDIENTES: avena, miel\n\nALÉRGENOS:\ntrazas de almendra.\n\nFECHA 2026, puede contener humedad"

	seg := ExtractIngredients(text)

	assert.Equal(t, []string{"avena", "miel"}, seg.Items)
	assert.Equal(t, []string{"trazas de almendra"}, seg.Traces)
}

func TestExtractIngredients_BlankLineEndsBlock(t *testing.T) {
	text := "INGREDIENTS\n\nleche, cacao\n\nLote 1234 vence 2027"

	seg := ExtractIngredients(text)

	assert.True(t, seg.HadHeaderMatch)
	assert.Equal(t, []string{"leche", "cacao"}, seg.Items)
}

func TestExtractIngredients_MultipleTraces(t *testing.T) {
	seg := ExtractIngredients("Ingredientes: arroz. Trazas de  sésamo; puede contener\nleche.")

	assert.Equal(t, []string{"Trazas de sésamo", "puede contener leche"}, seg.Traces)
}

func TestIsStopHeader(t *testing.T) {
	assert.True(t, IsStopHeader("Alérgenos: leche"))
	assert.True(t, IsStopHeader("  información nutricional"))
	assert.True(t, IsStopHeader("LOTE: 22A"))
	assert.False(t, IsStopHeader("leche entera"))
	assert.False(t, IsStopHeader("lotes de cacao"))
}

func TestSplitItems(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  []string
	}{
		{"bullets", "• harina · azúcar • sal", []string{"harina", "azúcar", "sal"}},
		{"conjunction", "leche, cacao y azúcar, y sal", []string{"leche", "cacao y azúcar", "sal"}},
		{"leading dash and colon", "- harina; : agua", []string{"harina", "agua"}},
		{"nested parens", "relleno (crema (leche, nata), azúcar), sal", []string{"relleno (crema (leche, nata), azúcar)", "sal"}},
		{"unbalanced close", "harina), sal", []string{"harina)", "sal"}},
		{"whitespace", "  harina   de\n trigo ,  sal  ", []string{"harina de trigo", "sal"}},
		{"trailing period", "harina, sal.", []string{"harina", "sal"}},
		{"only delimiters", " , ; ", []string{", ;"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitItems(tt.block))
		})
	}
}
