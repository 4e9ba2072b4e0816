// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Azúcar", "azucar"},
		{"  Leche en Polvo (Descremada) ", "leche_en_polvo_descremada"},
		{"Maní", "mani"},
		{"E-322", "e_322"},
		{"__ya__canonica__", "ya_canonica"},
		{"Ñandú & Piña!!", "nandu_pina"},
		{"", ""},
		{"¡¿!?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Chocolate (leche, cacao, E322)",
		"Harina de TRIGO enriquecida",
		"  múltiples   espacios\t y\nsaltos ",
		"Lecitina de soya (E322); emulsionante",
		"Ünïcödé çåsé",
		"123 abc",
	}
	for _, in := range inputs {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once), "input %q", in)
	}
}

func TestStripDiacritics_PreservesCase(t *testing.T) {
	assert.Equal(t, "AZUCAR Mani", StripDiacritics("AZÚCAR Maní"))
}

func TestFoldUpper_RuneAligned(t *testing.T) {
	in := "Ingredientes: maní"
	folded := FoldUpper(in)
	assert.Len(t, folded, len([]rune(in)))
	assert.Equal(t, "INGREDIENTES: MANI", string(folded))
}

func TestExtractENumbers(t *testing.T) {
	assert.Equal(t, []string{"E322", "E471"}, ExtractENumbers("Contiene E322 y E471"))
	assert.Equal(t, []string{"E322"}, ExtractENumbers("e322 e322"))
	assert.Equal(t, []string{"E1422", "E330"}, ExtractENumbers("almidón modificado (e1422), acidulante (E330), E1422"))
	assert.Empty(t, ExtractENumbers("sin aditivos E32 ni E12345"))
	assert.NotNil(t, ExtractENumbers(""))
}

func TestHasTokenSequence(t *testing.T) {
	assert.True(t, HasTokenSequence("harina_de_trigo", "trigo"))
	assert.True(t, HasTokenSequence("harina_de_trigo", "harina_de"))
	assert.True(t, HasTokenSequence("leche", "leche"))
	assert.False(t, HasTokenSequence("harina_de_trigo", "rigo"))
	assert.False(t, HasTokenSequence("", "trigo"))
	assert.False(t, HasTokenSequence("trigo", ""))
}

func TestTrigrams(t *testing.T) {
	got := Trigrams("Leche")
	want := []string{"  l", " le", "lec", "ech", "che", "he "}
	assert.Len(t, got, len(want))
	for _, g := range want {
		assert.Contains(t, got, g)
	}
	assert.Empty(t, Trigrams("!!"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("leche", "LECHE"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("maní", "mani"), 1e-9)
	// 6 shared trigrams out of a 15-trigram union.
	assert.InDelta(t, 0.4, Similarity("leche", "leche en polvo"), 1e-9)
	assert.Equal(t, 0.0, Similarity("", "leche"))
	assert.Less(t, Similarity("leche", "trigo"), 0.1)
}
