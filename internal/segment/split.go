// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package segment

import (
	"strings"
	"unicode"
)

// leadingJunk is stripped from the start of every item.
const leadingJunk = "-–—•·*:>"

// SplitItems splits an ingredient block on ',', ';', '•' and '·', but only
// at parenthesis depth 0, so "Chocolate (leche, cacao)" stays one item.
// Each item is whitespace-collapsed and loses leading bullets, dashes,
// colons, a leading "y " conjunction and trailing periods. Empty items are
// dropped. When nothing survives, the whole normalized block is returned as
// a single item.
func SplitItems(block string) []string {
	items := []string{}
	var cur strings.Builder
	depth := 0

	flush := func() {
		if item := normalizeItem(cur.String()); item != "" {
			items = append(items, item)
		}
		cur.Reset()
	}

	for _, r := range block {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',', ';', '•', '·':
			if depth == 0 {
				flush()
				continue
			}
		}
		cur.WriteRune(r)
	}
	flush()

	if len(items) == 0 {
		if whole := collapseSpaces(block); whole != "" {
			items = append(items, whole)
		}
	}
	return items
}

func normalizeItem(s string) string {
	s = collapseSpaces(s)
	for {
		before := s
		s = strings.TrimLeft(s, leadingJunk)
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if len(s) >= 2 && (s[0] == 'y' || s[0] == 'Y') && s[1] == ' ' {
			s = s[2:]
		}
		if s == before {
			break
		}
	}
	s = strings.TrimRight(s, ". ")
	return s
}
