// Package text turns raw document text (markup, HTML entities, OCR page
// markers) into the clean plain text that gets embedded.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	pageMarkerPattern  = regexp.MustCompile(`(?i)-{3}\s*página\s*\d+\s*-{3}`)
	whitespacePattern  = regexp.MustCompile(`[\s\p{Z}]+`)
	disallowedPattern  = regexp.MustCompile(`[^a-zA-Z0-9áéíóúñüÁÉÍÓÚÑÜ.,;:¡!¿?()\- ]+`)
	punctuationSpacing = regexp.MustCompile(` +([.,;:!?])`)
)

// maxPasses bounds the fixed-point loop. After the first pass every change
// shortens the text, so real inputs settle within two or three passes.
const maxPasses = 8

// Normalize strips tags, decodes entities, removes OCR page markers and
// characters outside the allow-list, tightens punctuation, lower-cases and
// trims. It is total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	out := raw
	for range maxPasses {
		next := pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func pass(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = pageMarkerPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = disallowedPattern.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = punctuationSpacing.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// Join concatenates the non-blank fields with a single space, in order.
func Join(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
