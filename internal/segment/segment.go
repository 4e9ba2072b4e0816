// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment locates the ingredient declaration inside raw OCR text and
// splits it into items, and collects "may contain" trace statements.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lukas-andre/alergias-app-sub001/internal/textnorm"
)

// Segment is the result of scanning OCR text for an ingredient list.
type Segment struct {
	// Header is the header word as printed (e.g. "Ingredientes"), empty in
	// degraded mode.
	Header string `json:"header" yaml:"header"`

	// RawBlock is the ingredient text with one source line per line.
	RawBlock string `json:"raw_block" yaml:"raw_block"`

	Items  []string `json:"items" yaml:"items"`
	Traces []string `json:"traces" yaml:"traces"`

	// HadHeaderMatch is false when no header was found and the whole input
	// was treated as the ingredient block.
	HadHeaderMatch bool `json:"had_header_match" yaml:"had_header_match"`
}

// headerPattern is matched against folded, uppercased lines.
var headerPattern = regexp.MustCompile(`^INGREDIENTE?S\b`)

// stopPattern marks the start of a section that ends the ingredient block.
// It is matched against folded, uppercased lines.
var stopPattern = regexp.MustCompile(`^(ALERGENOS?|ALERGENICOS?|CONTIENE|PUEDE CONTENER|TRAZAS|` +
	`INFORMACION NUTRICIONAL|TABLA NUTRICIONAL|NUTRICION(AL)?|VALOR ENERGETICO|PORCION|` +
	`LOTE|FECHA|VENCE|VENCIMIENTO|ELABORADO|FABRICADO|IMPORTADO|DISTRIBUIDO|` +
	`CONSERVAR|MODO DE|PREPARACION)\b`)

// precautionPattern marks the stop sections that may carry trace
// statements. It is matched against folded, uppercased lines.
var precautionPattern = regexp.MustCompile(`^(ALERGENOS?|ALERGENICOS?|CONTIENE|PUEDE CONTENER|TRAZAS)\b`)

// tracePattern finds precautionary allergen statements. The match runs up
// to the next '.', ';' or ','.
var tracePattern = regexp.MustCompile(`(?i)(?:puede\s+contener|trazas\s+de)[^.;,]*`)

// headerSeparators are stripped between the header word and the first
// item on the same line.
const headerSeparators = " \t:.-–—"

// ExtractIngredients finds the ingredients header, accumulates the block
// that follows it, splits the block into items and collects trace
// statements from the block and from the allergen sections right after
// it. Empty or whitespace-only input yields an empty Segment.
func ExtractIngredients(text string) Segment {
	seg := Segment{Items: []string{}, Traces: []string{}}
	if strings.TrimSpace(text) == "" {
		return seg
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerLine := -1
	var firstContent string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		folded := string(textnorm.FoldUpper(trimmed))
		loc := headerPattern.FindStringIndex(folded)
		if loc == nil {
			continue
		}
		// FoldUpper is rune-aligned, so the header's rune count in the
		// folded line is its rune count in the original.
		n := utf8.RuneCountInString(folded[:loc[1]])
		rs := []rune(trimmed)
		seg.Header = string(rs[:n])
		firstContent = strings.TrimSpace(strings.TrimLeft(string(rs[n:]), headerSeparators))
		headerLine = i
		break
	}

	if headerLine < 0 {
		seg.RawBlock = strings.TrimSpace(text)
		seg.Items = SplitItems(seg.RawBlock)
		seg.Traces = ExtractTraces(seg.RawBlock)
		return seg
	}

	seg.HadHeaderMatch = true
	rest := lines[headerLine+1:]
	var stop int
	seg.RawBlock, stop = collectBlock(firstContent, rest)
	seg.Items = SplitItems(seg.RawBlock)
	seg.Traces = append(ExtractTraces(seg.RawBlock), ExtractTraces(precautionSections(rest[stop:]))...)
	return seg
}

// collectBlock gathers content lines after the header until a stop-section
// header or a blank line following the first content line. It returns the
// block and the index in rest where scanning stopped.
func collectBlock(first string, rest []string) (string, int) {
	var block []string
	if first != "" {
		block = append(block, first)
	}
	i := 0
	for ; i < len(rest); i++ {
		trimmed := strings.TrimSpace(rest[i])
		if trimmed == "" {
			if len(block) > 0 {
				break
			}
			continue
		}
		if IsStopHeader(trimmed) {
			break
		}
		block = append(block, trimmed)
	}
	return strings.Join(block, "\n"), i
}

// precautionSections returns the lines of allergen and "may contain"
// sections that follow the ingredient block. A section runs from its
// header line to the next stop header or blank line; lot, date and
// nutrition sections are skipped.
func precautionSections(lines []string) string {
	var out []string
	in := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			in = false
		case IsStopHeader(trimmed):
			in = precautionPattern.MatchString(string(textnorm.FoldUpper(trimmed)))
			if in {
				out = append(out, trimmed)
			}
		case in:
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

// IsStopHeader reports whether line opens a section that is not part of the
// ingredient list (allergen statement, nutrition table, lot, dates...).
func IsStopHeader(line string) bool {
	return stopPattern.MatchString(string(textnorm.FoldUpper(strings.TrimSpace(line))))
}

// ExtractTraces returns every non-overlapping "puede contener ..." or
// "trazas de ..." statement in text, whitespace-collapsed, with the original
// casing preserved.
func ExtractTraces(text string) []string {
	traces := []string{}
	for _, m := range tracePattern.FindAllString(text, -1) {
		if t := collapseSpaces(m); t != "" {
			traces = append(traces, t)
		}
	}
	return traces
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
