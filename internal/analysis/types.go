package analysis

// NeutralScore is the midpoint of the sentiment scale and the default for
// text or aspects with no evidence.
const NeutralScore = 0.5

// MaxKeyPhrases caps the evidence sentences returned per aspect
const MaxKeyPhrases = 3

// AspectResult is the per-aspect view of one analysis
type AspectResult struct {
	Name       string   `json:"name"`
	Score      float64  `json:"score"`
	Mentioned  bool     `json:"mentioned"`
	Sentences  int      `json:"sentences"`
	KeyPhrases []string `json:"key_phrases"`
}

// Result bundles everything the rule engine derives from one review
type Result struct {
	OverallScore float64        `json:"overall_score"`
	Sentences    int            `json:"sentences"`
	Aspects      []AspectResult `json:"aspects"`
}

// AspectScores flattens the result into name → score
func (r Result) AspectScores() map[string]float64 {
	scores := make(map[string]float64, len(r.Aspects))
	for _, a := range r.Aspects {
		scores[a.Name] = a.Score
	}
	return scores
}

// Mentioned returns the aspects the review actually discusses
func (r Result) Mentioned() []AspectResult {
	out := make([]AspectResult, 0, len(r.Aspects))
	for _, a := range r.Aspects {
		if a.Mentioned {
			out = append(out, a)
		}
	}
	return out
}
