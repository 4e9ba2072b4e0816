// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cost prices a vision-model call from image dimensions and token
// counts. Images are normalized and tiled the way the model provider bills
// them; the package does no I/O.
package cost

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// ErrUnknownModel is returned when a model has no configured pricing.
var ErrUnknownModel = errors.New("unknown model")

// Rules are the image tiling parameters.
type Rules struct {
	LongSideCap     int
	ShortSideTarget int
	TileSize        int
	BaseTokens      int
	TokensPerTile   int
}

// DefaultRules returns the high-detail tiling rules.
func DefaultRules() Rules {
	return Rules{
		LongSideCap:     2048,
		ShortSideTarget: 768,
		TileSize:        512,
		BaseTokens:      70,
		TokensPerTile:   140,
	}
}

// DefaultPricing returns the built-in USD prices per million tokens.
func DefaultPricing() map[string]types.ModelPricing {
	return map[string]types.ModelPricing{
		"gpt-4o-mini":  {InputPerMTok: 0.15, OutputPerMTok: 0.60},
		"gpt-4o":       {InputPerMTok: 2.50, OutputPerMTok: 10.00},
		"gpt-4.1-mini": {InputPerMTok: 0.40, OutputPerMTok: 1.60},
		"gpt-4.1":      {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	}
}

// Size is an image size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// ParseSize parses "WIDTHxHEIGHT", e.g. "4096x3072".
func ParseSize(s string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid image size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Size{}, fmt.Errorf("invalid image width in %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Size{}, fmt.Errorf("invalid image height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return Size{}, fmt.Errorf("invalid image size %q: dimensions must be positive", s)
	}
	return Size{Width: width, Height: height}, nil
}

// NormalizeSize caps the long side at LongSideCap, then scales the short
// side down toward ShortSideTarget. Images are never upscaled.
func (r Rules) NormalizeSize(s Size) Size {
	if s.Width <= 0 || s.Height <= 0 {
		return s
	}
	w, h := float64(s.Width), float64(s.Height)

	if long := math.Max(w, h); long > float64(r.LongSideCap) {
		scale := float64(r.LongSideCap) / long
		w, h = math.Round(w*scale), math.Round(h*scale)
	}
	if short := math.Min(w, h); short > float64(r.ShortSideTarget) {
		scale := float64(r.ShortSideTarget) / short
		w, h = math.Round(w*scale), math.Round(h*scale)
	}
	return Size{Width: int(w), Height: int(h)}
}

// Tiles counts the TileSize tiles covering an already normalized size.
func (r Rules) Tiles(s Size) int {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return ceilDiv(s.Width, r.TileSize) * ceilDiv(s.Height, r.TileSize)
}

// TileTokens returns the token cost of an image covered by tiles tiles.
func (r Rules) TileTokens(tiles int) int {
	return r.BaseTokens + r.TokensPerTile*tiles
}

// ImageTokens normalizes s and returns its token cost.
func (r Rules) ImageTokens(s Size) int {
	return r.TileTokens(r.Tiles(r.NormalizeSize(s)))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Request describes one model call to price.
type Request struct {
	Model        string
	Images       []Size
	PromptTokens int
	OutputTokens int
}

// ImageEstimate is the per-image breakdown.
type ImageEstimate struct {
	Original   Size `json:"original"`
	Normalized Size `json:"normalized"`
	Tiles      int  `json:"tiles"`
	Tokens     int  `json:"tokens"`
}

// Estimate is the priced breakdown of a Request.
type Estimate struct {
	Model        string          `json:"model"`
	Images       []ImageEstimate `json:"images"`
	ImageTokens  int             `json:"image_tokens"`
	PromptTokens int             `json:"prompt_tokens"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	InputUSD     float64         `json:"input_usd"`
	OutputUSD    float64         `json:"output_usd"`
	TotalUSD     float64         `json:"total_usd"`
}

// Estimator prices requests with a fixed rule set and pricing table.
type Estimator struct {
	rules   Rules
	pricing map[string]types.ModelPricing
}

// NewEstimator merges overrides into DefaultPricing. Model keys are
// compared case-insensitively.
func NewEstimator(rules Rules, overrides map[string]types.ModelPricing) *Estimator {
	pricing := make(map[string]types.ModelPricing)
	for k, v := range DefaultPricing() {
		pricing[modelKey(k)] = v
	}
	for k, v := range overrides {
		pricing[modelKey(k)] = v
	}
	return &Estimator{rules: rules, pricing: pricing}
}

// Models returns the priced model keys, sorted.
func (e *Estimator) Models() []string {
	out := make([]string, 0, len(e.pricing))
	for k := range e.pricing {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Estimate prices req. It fails with ErrUnknownModel when the model has no
// pricing and on negative token counts.
func (e *Estimator) Estimate(req Request) (Estimate, error) {
	price, ok := e.pricing[modelKey(req.Model)]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %q (priced: %s)", ErrUnknownModel, req.Model, strings.Join(e.Models(), ", "))
	}
	if req.PromptTokens < 0 || req.OutputTokens < 0 {
		return Estimate{}, fmt.Errorf("token counts must not be negative")
	}

	est := Estimate{
		Model:        modelKey(req.Model),
		Images:       make([]ImageEstimate, 0, len(req.Images)),
		PromptTokens: req.PromptTokens,
		OutputTokens: req.OutputTokens,
	}
	for _, img := range req.Images {
		norm := e.rules.NormalizeSize(img)
		tiles := e.rules.Tiles(norm)
		tokens := e.rules.TileTokens(tiles)
		est.Images = append(est.Images, ImageEstimate{Original: img, Normalized: norm, Tiles: tiles, Tokens: tokens})
		est.ImageTokens += tokens
	}

	est.InputTokens = est.PromptTokens + est.ImageTokens
	est.InputUSD = float64(est.InputTokens) / 1e6 * price.InputPerMTok
	est.OutputUSD = float64(est.OutputTokens) / 1e6 * price.OutputPerMTok
	est.TotalUSD = est.InputUSD + est.OutputUSD
	return est, nil
}

func modelKey(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}
