// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

func TestNormalizeSize_CapThenShortSide(t *testing.T) {
	r := DefaultRules()
	in := Size{Width: 4096, Height: 3072}

	// Step 1 on its own: cap the long side at 2048 (scale 0.5).
	capped := Rules{LongSideCap: 2048, ShortSideTarget: 1 << 30, TileSize: 512}.NormalizeSize(in)
	assert.Equal(t, Size{Width: 2048, Height: 1536}, capped)

	// Step 2: 1536 > 768, scale 0.5 again.
	norm := r.NormalizeSize(in)
	assert.Equal(t, Size{Width: 1024, Height: 768}, norm)

	tiles := r.Tiles(norm)
	assert.Equal(t, 4, tiles)
	assert.Equal(t, 630, r.TileTokens(tiles))
	assert.Equal(t, 630, r.ImageTokens(in))
}

func TestNormalizeSize(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		in, want Size
	}{
		{Size{512, 512}, Size{512, 512}},    // no upscaling
		{Size{1000, 700}, Size{1000, 700}},  // short side already under target
		{Size{1536, 1024}, Size{1152, 768}}, // short side scaled
		{Size{3000, 1000}, Size{2048, 683}}, // cap only
		{Size{800, 4000}, Size{410, 2048}},  // cap leaves the short side under target
		{Size{0, 100}, Size{0, 100}},        // invalid sizes pass through
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.NormalizeSize(tt.in), "NormalizeSize(%v)", tt.in)
	}
}

func TestTiles(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 1, r.Tiles(Size{512, 512}))
	assert.Equal(t, 4, r.Tiles(Size{513, 513}))
	assert.Equal(t, 6, r.Tiles(Size{1152, 768}))
	assert.Equal(t, 0, r.Tiles(Size{0, 768}))
	assert.Equal(t, 70, r.TileTokens(0))
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize(" 4096X3072 ")
	require.NoError(t, err)
	assert.Equal(t, Size{4096, 3072}, s)
	assert.Equal(t, "4096x3072", s.String())

	for _, bad := range []string{"4096", "ax3", "3xb", "0x100", "-5x10", ""} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestEstimate(t *testing.T) {
	e := NewEstimator(DefaultRules(), nil)

	est, err := e.Estimate(Request{
		Model:        "GPT-4o-mini",
		Images:       []Size{{4096, 3072}, {512, 512}},
		PromptTokens: 1000,
		OutputTokens: 500,
	})
	require.NoError(t, err)

	require.Len(t, est.Images, 2)
	assert.Equal(t, 630, est.Images[0].Tokens)
	assert.Equal(t, 210, est.Images[1].Tokens)
	assert.Equal(t, 840, est.ImageTokens)
	assert.Equal(t, 1840, est.InputTokens)
	assert.InDelta(t, 1840.0/1e6*0.15, est.InputUSD, 1e-12)
	assert.InDelta(t, 500.0/1e6*0.60, est.OutputUSD, 1e-12)
	assert.InDelta(t, est.InputUSD+est.OutputUSD, est.TotalUSD, 1e-12)
	assert.Equal(t, "gpt-4o-mini", est.Model)
}

func TestEstimate_UnknownModel(t *testing.T) {
	e := NewEstimator(DefaultRules(), nil)
	_, err := e.Estimate(Request{Model: "llava-13b"})
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Contains(t, err.Error(), "gpt-4o")
}

func TestEstimate_NegativeTokens(t *testing.T) {
	e := NewEstimator(DefaultRules(), nil)
	_, err := e.Estimate(Request{Model: "gpt-4o", PromptTokens: -1})
	assert.Error(t, err)
}

func TestNewEstimator_Overrides(t *testing.T) {
	e := NewEstimator(DefaultRules(), map[string]types.ModelPricing{
		"Local-Vision": {InputPerMTok: 1, OutputPerMTok: 2},
		"gpt-4o":       {InputPerMTok: 5, OutputPerMTok: 15},
	})
	assert.Contains(t, e.Models(), "local-vision")

	est, err := e.Estimate(Request{Model: "local-vision", PromptTokens: 1_000_000, OutputTokens: 1_000_000})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, est.TotalUSD, 1e-9)

	est, err = e.Estimate(Request{Model: "gpt-4o", PromptTokens: 1_000_000})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, est.TotalUSD, 1e-9)

	// Defaults are not mutated by overrides.
	assert.Equal(t, 2.50, DefaultPricing()["gpt-4o"].InputPerMTok)
}
