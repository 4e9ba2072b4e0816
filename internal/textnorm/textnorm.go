// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm holds the string normalization shared by every stage of
// the label pipeline: diacritic folding, canonical matching keys, E-number
// extraction and trigram similarity.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// eNumberPattern matches additive codes such as E322 or e1422.
var eNumberPattern = regexp.MustCompile(`(?i)\bE(\d{3,4})\b`)

// StripDiacritics removes combining marks: "Azúcar" becomes "Azucar" and
// "maní" becomes "mani". Case is preserved.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	return strings.ToLower(StripDiacritics(s))
}

// FoldRune strips the diacritic from a single rune, keeping every other
// rune as is. It never changes the rune count of a string, which lets
// callers match on folded text and slice the original.
func FoldRune(r rune) rune {
	if r < unicode.MaxASCII {
		return r
	}
	d := []rune(norm.NFD.String(string(r)))
	if len(d) == 0 {
		return r
	}
	return d[0]
}

// FoldUpper returns the rune-aligned, diacritic-free, uppercased form of s.
// The result has exactly as many runes as s.
func FoldUpper(s string) []rune {
	in := []rune(s)
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToUpper(FoldRune(r))
	}
	return out
}

// Canonicalize produces the matching key for a surface string: lowercase,
// diacritics stripped, runs of anything outside [a-z0-9] collapsed to a
// single underscore, and leading/trailing underscores trimmed.
//
// Canonicalize is idempotent.
func Canonicalize(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// ExtractENumbers returns the E-number codes in s, uppercased and
// deduplicated, in order of first occurrence. It never returns nil.
func ExtractENumbers(s string) []string {
	codes := []string{}
	seen := make(map[string]bool)
	for _, m := range eNumberPattern.FindAllStringSubmatch(s, -1) {
		code := "E" + m[1]
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}

// HasTokenSequence reports whether the underscore-separated tokens of key
// appear contiguously within canonical. Both arguments must already be
// canonical. "harina_de_trigo" contains "trigo" and "harina_de" but not
// "rigo".
func HasTokenSequence(canonical, key string) bool {
	if canonical == "" || key == "" {
		return false
	}
	if canonical == key {
		return true
	}
	return strings.Contains("_"+canonical+"_", "_"+key+"_")
}
