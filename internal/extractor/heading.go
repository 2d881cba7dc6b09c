package extractor

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Bullet glyphs and ligature codepoints that survive PDF text extraction.
	junkChars = regexp.MustCompile("[•◦●ﬀ-ﬄ]")
	spaces    = regexp.MustCompile(`\s+`)

	// "1", "2.1", "3. Method"
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*(\s+\S.*)?$`)
	// Short ALL-CAPS lines: caps, digits and light punctuation only.
	allCapsHeading = regexp.MustCompile(`^[A-Z0-9\s\-\(\):,./&]+$`)
	hasUpper       = regexp.MustCompile(`[A-Z]`)
)

// normalizeLine strips bullet glyphs and collapses runs of whitespace.
func normalizeLine(s string) string {
	s = junkChars.ReplaceAllString(s, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// isHeading reports whether a normalized line looks like a section boundary.
// The signals, in order: numbered headings, short ALL-CAPS lines, lines
// ending in a colon, and short title-case lines without terminal punctuation.
func isHeading(line string) bool {
	if len(line) <= 2 {
		return false
	}

	if numberedHeading.MatchString(line) {
		return true
	}
	if len(line) <= 120 && allCapsHeading.MatchString(line) && hasUpper.MatchString(line) {
		return len(line) > 3
	}
	if strings.HasSuffix(line, ":") && len(line) <= 120 {
		return true
	}

	// Title-case heuristic: at most 12 words, no sentence-ending punctuation,
	// every word capitalized.
	words := strings.Fields(line)
	if len(words) > 12 {
		return false
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
		return false
	}
	if len(words) > 1 && !isTitleCase(words) {
		return false
	}
	if len(words) == 1 {
		// A lone lowercase word is body text, not a heading.
		r := []rune(words[0])
		return unicode.IsUpper(r[0])
	}
	return true
}

func isTitleCase(words []string) bool {
	for _, w := range words {
		r := []rune(w)
		if len(r) == 0 {
			continue
		}
		if unicode.IsLetter(r[0]) && !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}
