// Package normalizer cleans raw extracted text before it reaches the
// section classifier and chunker. It is a pure function: no I/O, no
// package-level state.
package normalizer

import (
	"regexp"
	"strings"
)

var (
	formFeed        = regexp.MustCompile(`\f`)
	pageMarker      = regexp.MustCompile(`(?im)^\s*(page\s+\d+(\s+of\s+\d+)?|-+\s*\d+\s*-+)\s*$`)
	runOfSpaces     = regexp.MustCompile(`[ \t]+`)
	threeOrMoreNewlines = regexp.MustCompile(`\n{3,}`)
	trailingSpaces  = regexp.MustCompile(`[ \t]+\n`)
)

// Result is the normalizer's output: the cleaned text and a best-effort
// language tag.
type Result struct {
	CleanedText string
	Language    string
}

// Normalize collapses whitespace, strips page markers and form-feed noise,
// and preserves paragraph boundaries (double newline). If the cleanup would
// drop more than 5% of the input by character count, it returns the
// original text unchanged rather than risk losing content.
func Normalize(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{CleanedText: "", Language: "unknown"}
	}

	cleaned := formFeed.ReplaceAllString(raw, "\n")
	cleaned = pageMarker.ReplaceAllString(cleaned, "")
	cleaned = trailingSpaces.ReplaceAllString(cleaned, "\n")
	cleaned = runOfSpaces.ReplaceAllString(cleaned, " ")
	cleaned = threeOrMoreNewlines.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	if droppedTooMuch(raw, cleaned) {
		cleaned = strings.TrimSpace(raw)
	}

	return Result{
		CleanedText: cleaned,
		Language:    detectLanguage(cleaned),
	}
}

func droppedTooMuch(raw, cleaned string) bool {
	rawLen := len([]rune(raw))
	if rawLen == 0 {
		return false
	}
	cleanedLen := len([]rune(cleaned))
	dropped := float64(rawLen-cleanedLen) / float64(rawLen)
	return dropped > 0.05
}

// detectLanguage is a minimal heuristic language sniffer: English vs
// Korean vs unknown, based on script distribution. It is deliberately not a
// full language-ID library since the spec only asks for a two-letter code
// or "unknown".
func detectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	var latin, hangul, total int
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin++
			total++
		case r >= 0xAC00 && r <= 0xD7A3:
			hangul++
			total++
		}
	}
	if total == 0 {
		return "unknown"
	}
	if hangul > latin {
		return "ko"
	}
	if latin > 0 {
		return "en"
	}
	return "unknown"
}
