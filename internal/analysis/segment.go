package analysis

import (
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/review-sentiment/internal/lexicon"
)

// sentenceBoundary treats a run of terminators as a single boundary
var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of '.', '!' and '?', trimming each
// span and discarding empty ones. Casing is preserved.
func SplitSentences(text string) []string {
	if text == "" {
		return []string{}
	}

	parts := sentenceBoundary.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Mentions reports whether any keyword occurs in the lower-cased text
func Mentions(lowerText string, keywords []string) bool {
	return lexicon.ContainsAny(lowerText, keywords)
}

// RelevantSentences filters sentences down to those containing at least one
// keyword, compared case-insensitively. Order and casing are preserved.
func RelevantSentences(sentences []string, keywords []string) []string {
	relevant := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if lexicon.ContainsAny(strings.ToLower(s), keywords) {
			relevant = append(relevant, s)
		}
	}
	return relevant
}
