package analysis

import (
	"strings"

	"github.com/ZanzyTHEbar/review-sentiment/internal/lexicon"
)

// Analyzer is the rule-based review scorer. It holds only the immutable
// lexicon, so one instance can serve concurrent requests.
type Analyzer struct {
	lexicon *lexicon.Lexicon
}

// NewAnalyzer creates an analyzer over lx, or over the built-in lexicon when lx is nil
func NewAnalyzer(lx *lexicon.Lexicon) *Analyzer {
	if lx == nil {
		lx = lexicon.MustDefault()
	}
	return &Analyzer{lexicon: lx}
}

// Lexicon returns the lexicon the analyzer scores with
func (a *Analyzer) Lexicon() *lexicon.Lexicon {
	return a.lexicon
}

// ScoreSentence scores one sentence in [0,1]. The first matching tier sets
// the base score, a negation reflects it around 0.5 and a qualifier pulls it
// toward neutral.
func (a *Analyzer) ScoreSentence(sentence string) float64 {
	sentence = strings.ToLower(sentence)

	score := NeutralScore
	tier, found := a.lexicon.MatchTier(sentence)
	if found {
		score = tier.Score
	}

	// negation only flips an actual sentiment; neutral text stays neutral
	if found && a.lexicon.HasNegation(sentence) {
		score = 1.0 - score
	}

	if a.lexicon.HasQualifier(sentence) {
		d := a.lexicon.Dampening()
		switch {
		case score > NeutralScore:
			score -= d.Positive
		case score < NeutralScore:
			score += d.Negative
		}
	}

	return clip(score, 0, 1)
}

// AnalyzeAspects scores every configured aspect. Aspects the text does not
// mention report exactly NeutralScore.
func (a *Analyzer) AnalyzeAspects(text string) map[string]float64 {
	return a.Analyze(text).AspectScores()
}

// AnalyzeOverallSentiment averages the score of every sentence in text,
// with no aspect filtering. Text without sentences scores NeutralScore.
func (a *Analyzer) AnalyzeOverallSentiment(text string) float64 {
	return a.overall(SplitSentences(text))
}

// ExtractKeyPhrases returns up to MaxKeyPhrases sentences mentioning the
// aspect, in order and with original casing. Unknown aspects yield none.
func (a *Analyzer) ExtractKeyPhrases(text, aspect string) []string {
	keywords, ok := a.lexicon.Keywords(aspect)
	if !ok {
		return []string{}
	}
	return limit(RelevantSentences(SplitSentences(text), keywords), MaxKeyPhrases)
}

// Analyze runs the whole rule engine over text in a single segmentation pass
func (a *Analyzer) Analyze(text string) Result {
	sentences := SplitSentences(text)
	lowerText := strings.ToLower(text)

	aspects := a.lexicon.Aspects()
	result := Result{
		OverallScore: a.overall(sentences),
		Sentences:    len(sentences),
		Aspects:      make([]AspectResult, 0, len(aspects)),
	}

	for _, aspect := range aspects {
		result.Aspects = append(result.Aspects, a.scoreAspect(aspect, lowerText, sentences))
	}

	return result
}

func (a *Analyzer) scoreAspect(aspect lexicon.Aspect, lowerText string, sentences []string) AspectResult {
	res := AspectResult{
		Name:       aspect.Name,
		Score:      NeutralScore,
		KeyPhrases: []string{},
	}

	if !Mentions(lowerText, aspect.Keywords) {
		return res
	}
	res.Mentioned = true

	relevant := RelevantSentences(sentences, aspect.Keywords)
	res.Sentences = len(relevant)
	res.KeyPhrases = limit(relevant, MaxKeyPhrases)
	if len(relevant) == 0 {
		// keyword hit across a sentence boundary; no usable context
		return res
	}

	res.Score = clip(a.mean(relevant), 0, 1)
	return res
}

func (a *Analyzer) overall(sentences []string) float64 {
	if len(sentences) == 0 {
		return NeutralScore
	}
	return clip(a.mean(sentences), 0, 1)
}

func (a *Analyzer) mean(sentences []string) float64 {
	total := 0.0
	for _, s := range sentences {
		total += a.ScoreSentence(s)
	}
	return total / float64(len(sentences))
}

func limit(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
