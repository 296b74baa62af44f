// Package chunker splits normalized text into overlapping, token-budgeted
// chunks and tags each with a section type, counting tokens with
// tiktoken-go.
package chunker

import (
	"regexp"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"resumatch/internal/domain"
	"resumatch/internal/section"
)

const (
	targetTokens    = 700
	minTokens       = 600
	maxTokens       = 800
	overlapTokens   = 80
	mergeThreshold  = 200
	tokenizerModel  = "gpt-3.5-turbo"
)

var headingLine = regexp.MustCompile(`(?m)^\s*[A-Za-z][A-Za-z /&-]{1,40}:?\s*$`)

// Output is the chunker's output shape before embedding/IDs are attached.
type Output struct {
	ChunkIndex  int
	Content     string
	SectionType domain.SectionType
	CharCount   int
	TokenCount  int
}

type tokenizer struct {
	enc *tiktoken.Tiktoken
}

func newTokenizer() (*tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(tokenizerModel)
	if err != nil {
		return nil, err
	}
	return &tokenizer{enc: enc}, nil
}

func (t *tokenizer) count(s string) int {
	if s == "" {
		return 0
	}
	return len(t.enc.Encode(s, nil, nil))
}

// Chunk splits text into ordered, contiguous, token-budgeted chunks. Never
// splits inside a heading line; merges trailing fragments below
// mergeThreshold tokens into the previous chunk. Deterministic: identical
// input always yields identical output.
func Chunk(text string, fileType domain.FileType) ([]Output, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	tok, err := newTokenizer()
	if err != nil {
		return nil, err
	}

	lines := splitKeepingHeadings(text)
	windows := windowLines(lines, tok)
	windows = mergeTrailingFragment(windows, tok)

	chunks := make([]Output, 0, len(windows))
	for i, w := range windows {
		content := strings.TrimSpace(strings.Join(w, "\n"))
		if content == "" {
			continue
		}
		sectionType := section.Classify(content, fileType)
		chunks = append(chunks, Output{
			ChunkIndex:  i,
			Content:     content,
			SectionType: sectionType,
			CharCount:   len([]rune(content)),
			TokenCount:  tok.count(content),
		})
	}

	// Re-index contiguously, since windows that trim to empty are skipped above.
	for i := range chunks {
		chunks[i].ChunkIndex = i
	}

	return chunks, nil
}

// splitKeepingHeadings breaks text into lines, keeping heading lines whole.
// Lines are not tagged here; windowLines checks each one with isHeading.
func splitKeepingHeadings(text string) []string {
	return strings.Split(text, "\n")
}

func isHeading(line string) bool {
	return headingLine.MatchString(line) && len(strings.Fields(line)) <= 6
}

// windowLines groups lines into token-budgeted windows of targetTokens,
// capped at maxTokens, carrying overlapTokens worth of trailing lines
// forward into the next window. A window boundary is never placed
// immediately after a heading line (the heading is pushed into the next
// window instead, alongside its body).
func windowLines(lines []string, tok *tokenizer) [][]string {
	if len(lines) == 0 {
		return nil
	}

	var windows [][]string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		windows = append(windows, current)
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		lineTokens := tok.count(line)

		if currentTokens+lineTokens > maxTokens && currentTokens >= minTokens {
			// Don't end a window with a dangling heading; push it forward.
			if len(current) > 0 && isHeading(current[len(current)-1]) {
				heading := current[len(current)-1]
				current = current[:len(current)-1]
				flush()
				current = carryOverlap(current, tok)
				current = append(current, heading)
				currentTokens = tok.count(strings.Join(current, "\n"))
				continue
			}
			flush()
			current = carryOverlap(current, tok)
			currentTokens = tok.count(strings.Join(current, "\n"))
			continue
		}

		current = append(current, line)
		currentTokens += lineTokens
		i++

		if currentTokens >= targetTokens && !isHeading(line) {
			flush()
			current = carryOverlap(current, tok)
			currentTokens = tok.count(strings.Join(current, "\n"))
		}
	}
	flush()

	return windows
}

// carryOverlap returns the trailing lines of prev worth up to
// overlapTokens, to seed the next window with context continuity.
func carryOverlap(prev []string, tok *tokenizer) []string {
	if len(prev) == 0 {
		return nil
	}
	var carried []string
	total := 0
	for i := len(prev) - 1; i >= 0; i-- {
		t := tok.count(prev[i])
		if total+t > overlapTokens {
			break
		}
		carried = append([]string{prev[i]}, carried...)
		total += t
	}
	return carried
}

// mergeTrailingFragment folds a final window under mergeThreshold tokens
// into the previous one, so the chunk set never ends with a sliver.
func mergeTrailingFragment(windows [][]string, tok *tokenizer) [][]string {
	if len(windows) < 2 {
		return windows
	}
	last := windows[len(windows)-1]
	if tok.count(strings.Join(last, "\n")) >= mergeThreshold {
		return windows
	}
	merged := append(windows[len(windows)-2], last...)
	windows[len(windows)-2] = merged
	return windows[:len(windows)-1]
}
