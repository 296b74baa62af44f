// Package keyword tokenizes résumé/JD text into normalized keyword sets,
// grounded on the same tokenizer shape the job-matching reference in this
// pack uses: lowercase, stop-word filtered, tech suffixes like "node.js" and
// "c++" preserved.
package keyword

import (
	"sort"
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "you": true,
	"are": true, "have": true, "will": true, "this": true, "that": true,
	"from": true, "our": true, "your": true, "their": true, "they": true,
	"work": true, "team": true, "role": true, "job": true, "join": true,
	"about": true, "which": true, "what": true, "who": true, "how": true,
	"can": true, "not": true, "but": true, "all": true, "also": true,
	"more": true, "than": true, "into": true, "has": true, "its": true,
	"was": true, "were": true, "been": true, "each": true, "new": true,
	"use": true, "using": true, "used": true, "well": true, "high": true,
	"good": true, "able": true, "get": true, "set": true, "such": true,
}

// shortTechTokens exempts genuine technology names shorter than the normal
// 3-rune floor from being dropped as noise — "go" and "r" are languages in
// their own right, not word fragments.
var shortTechTokens = map[string]bool{
	"go": true,
	"r":  true,
	"c":  true,
	"c#": true,
	"js": true,
}

// Extract tokenizes text into a set of normalized keywords: lowercase,
// whitespace stripped, at least 3 runes (shorter for a known short tech
// token), stop words removed. Tech suffix characters (+, #, .) are
// preserved inside a token so "c++" and "node.js" survive intact.
func Extract(text string) map[string]bool {
	kw := make(map[string]bool)
	var word strings.Builder

	flush := func() {
		w := word.String()
		word.Reset()
		w = strings.TrimRight(w, ".")
		w = Normalize(w)
		if stopWords[w] {
			return
		}
		if len([]rune(w)) >= 3 || shortTechTokens[w] {
			kw[w] = true
		}
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return kw
}

// Normalize lowercases and strips all whitespace from a single keyword, the
// canonical form used for equality checks across résumé/JD/catalog/roadmap
// keyword comparisons.
func Normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), "")
}

// Sorted returns the keys of a keyword set in sorted order, for
// deterministic output.
func Sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
