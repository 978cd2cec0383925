package lexicon

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier names in the default precedence order. Negative tiers are checked
// before positive ones so mixed sentences skew negative.
const (
	TierStrongNegative = "strong_negative"
	TierNegative       = "negative"
	TierNeutral        = "neutral"
	TierPositive       = "positive"
	TierStrongPositive = "strong_positive"
)

// ErrInvalidLexicon is wrapped by every validation failure.
var ErrInvalidLexicon = errors.New("invalid lexicon")

// Aspect is a named product attribute and the keywords that trigger it
type Aspect struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Tier is an intensity band of sentiment words with its base score
type Tier struct {
	Name  string   `yaml:"name" json:"name"`
	Words []string `yaml:"words" json:"words"`
	Score float64  `yaml:"score" json:"score"`
}

// Dampening holds the qualifier adjustments. Positive is subtracted from
// scores above neutral, Negative is added to scores below it.
type Dampening struct {
	Positive float64 `yaml:"positive" json:"positive"`
	Negative float64 `yaml:"negative" json:"negative"`
}

// Definition is the mutable, serializable form of a lexicon
type Definition struct {
	Aspects    []Aspect  `yaml:"aspects" json:"aspects"`
	Tiers      []Tier    `yaml:"tiers" json:"tiers"`
	Negations  []string  `yaml:"negations" json:"negations"`
	Qualifiers []string  `yaml:"qualifiers" json:"qualifiers"`
	Dampening  Dampening `yaml:"dampening" json:"dampening"`
}

// Lexicon is the validated, immutable lexicon. All lookups are
// case-insensitive substring tests and it is safe for concurrent use.
type Lexicon struct {
	aspects    []Aspect
	index      map[string]int
	tiers      []Tier
	negations  []string
	qualifiers []string
	dampening  Dampening
}

// New validates def and builds an immutable Lexicon from a deep copy of it
func New(def Definition) (*Lexicon, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	lx := &Lexicon{
		aspects:    make([]Aspect, len(def.Aspects)),
		index:      make(map[string]int, len(def.Aspects)),
		tiers:      make([]Tier, len(def.Tiers)),
		negations:  normalize(def.Negations),
		qualifiers: normalize(def.Qualifiers),
		dampening:  def.Dampening,
	}

	for i, a := range def.Aspects {
		lx.aspects[i] = Aspect{Name: a.Name, Keywords: normalize(a.Keywords)}
		lx.index[a.Name] = i
	}
	for i, t := range def.Tiers {
		lx.tiers[i] = Tier{Name: t.Name, Words: normalize(t.Words), Score: t.Score}
	}

	return lx, nil
}

// MustDefault returns the built-in lexicon and panics if it is invalid
func MustDefault() *Lexicon {
	lx, err := New(DefaultDefinition())
	if err != nil {
		panic(fmt.Sprintf("default lexicon: %v", err))
	}
	return lx
}

// LoadFile reads a YAML override file. Keys present in the file replace the
// corresponding defaults wholesale; absent keys keep the built-in values.
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML lexicon override on top of the default definition
func Parse(data []byte) (*Lexicon, error) {
	def := DefaultDefinition()
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}
	return New(def)
}

// Validate checks the structural invariants of a definition
func (d Definition) Validate() error {
	if len(d.Aspects) == 0 {
		return fmt.Errorf("%w: no aspects configured", ErrInvalidLexicon)
	}
	seen := make(map[string]bool, len(d.Aspects))
	for _, a := range d.Aspects {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("%w: aspect with empty name", ErrInvalidLexicon)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate aspect %q", ErrInvalidLexicon, a.Name)
		}
		seen[a.Name] = true
		if len(normalize(a.Keywords)) == 0 {
			return fmt.Errorf("%w: aspect %q has no keywords", ErrInvalidLexicon, a.Name)
		}
	}

	if len(d.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers configured", ErrInvalidLexicon)
	}
	tierNames := make(map[string]bool, len(d.Tiers))
	for _, t := range d.Tiers {
		if tierNames[t.Name] {
			return fmt.Errorf("%w: duplicate tier %q", ErrInvalidLexicon, t.Name)
		}
		tierNames[t.Name] = true
		if t.Score < 0 || t.Score > 1 {
			return fmt.Errorf("%w: tier %q score %.2f outside [0,1]", ErrInvalidLexicon, t.Name, t.Score)
		}
		if len(normalize(t.Words)) == 0 {
			return fmt.Errorf("%w: tier %q has no words", ErrInvalidLexicon, t.Name)
		}
	}

	if d.Dampening.Positive < 0 || d.Dampening.Negative < 0 {
		return fmt.Errorf("%w: dampening must not be negative", ErrInvalidLexicon)
	}
	return nil
}

// Aspects returns a copy of the configured aspects in configuration order
func (l *Lexicon) Aspects() []Aspect {
	out := make([]Aspect, len(l.aspects))
	for i, a := range l.aspects {
		out[i] = Aspect{Name: a.Name, Keywords: append([]string(nil), a.Keywords...)}
	}
	return out
}

// AspectNames returns aspect names in configuration order
func (l *Lexicon) AspectNames() []string {
	names := make([]string, len(l.aspects))
	for i, a := range l.aspects {
		names[i] = a.Name
	}
	return names
}

// Keywords returns the lower-cased keywords of an aspect
func (l *Lexicon) Keywords(aspect string) ([]string, bool) {
	i, ok := l.index[aspect]
	if !ok {
		return nil, false
	}
	return l.aspects[i].Keywords, true
}

// Tiers returns a copy of the tiers in precedence order
func (l *Lexicon) Tiers() []Tier {
	out := make([]Tier, len(l.tiers))
	for i, t := range l.tiers {
		out[i] = Tier{Name: t.Name, Words: append([]string(nil), t.Words...), Score: t.Score}
	}
	return out
}

// MatchTier returns the first tier, in precedence order, with any word
// contained in the lower-cased sentence.
func (l *Lexicon) MatchTier(sentence string) (Tier, bool) {
	for _, t := range l.tiers {
		if ContainsAny(sentence, t.Words) {
			return t, true
		}
	}
	return Tier{}, false
}

// HasNegation reports whether the lower-cased sentence contains a negation
func (l *Lexicon) HasNegation(sentence string) bool {
	return ContainsAny(sentence, l.negations)
}

// HasQualifier reports whether the lower-cased sentence contains a qualifier
func (l *Lexicon) HasQualifier(sentence string) bool {
	return ContainsAny(sentence, l.qualifiers)
}

// Dampening returns the qualifier adjustments
func (l *Lexicon) Dampening() Dampening {
	return l.dampening
}

// Definition returns a deep copy of the lexicon in its serializable form
func (l *Lexicon) Definition() Definition {
	return Definition{
		Aspects:    l.Aspects(),
		Tiers:      l.Tiers(),
		Negations:  append([]string(nil), l.negations...),
		Qualifiers: append([]string(nil), l.qualifiers...),
		Dampening:  l.dampening,
	}
}

// ContainsAny reports whether s contains any of the needles as a substring.
// Matching is deliberately not word-boundary aware.
func ContainsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// normalize lower-cases and trims words, dropping empties
func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
