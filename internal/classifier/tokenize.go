package classifier

import (
	"regexp"
	"strings"

	"github.com/bbalet/stopwords"
	godiacritics "gopkg.in/Regis24GmbH/go-diacritics.v2"
)

// tokenPattern keeps runs of two or more letters, digits or underscores
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TokenizerConfig controls text normalisation before vectorizing
type TokenizerConfig struct {
	StripAccents    bool `json:"strip_accents"`
	RemoveStopWords bool `json:"remove_stop_words"`
}

// Tokenizer turns review text into lower-case word tokens
type Tokenizer struct {
	config TokenizerConfig
}

// NewTokenizer creates a tokenizer
func NewTokenizer(config TokenizerConfig) Tokenizer {
	return Tokenizer{config: config}
}

// Tokenize normalises text and splits it into tokens
func (t Tokenizer) Tokenize(text string) []string {
	if t.config.StripAccents {
		text = godiacritics.Normalize(text)
	}
	text = strings.ToLower(text)

	// stop word lists include negations, so this is off by default
	if t.config.RemoveStopWords {
		text = stopwords.CleanString(text, "en", false)
	}

	return tokenPattern.FindAllString(text, -1)
}
