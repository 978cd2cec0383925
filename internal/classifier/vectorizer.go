package classifier

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyVocabulary means no training document produced a single token
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain no tokens")

// Vectorizer maps text to L2-normalised TF-IDF vectors over a vocabulary
// fixed at fit time.
type Vectorizer struct {
	tokenizer Tokenizer
	vocab     map[string]int
	terms     []string
	idf       []float64
}

// FitVectorizer learns the vocabulary and smoothed inverse document
// frequencies, idf = ln((1+n)/(1+df)) + 1.
func FitVectorizer(docs []string, tokenizer Tokenizer) (*Vectorizer, error) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range tokenizer.Tokenize(doc) {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		tokenizer: tokenizer,
		vocab:     make(map[string]int, len(terms)),
		terms:     terms,
		idf:       make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return v, nil
}

// Size returns the vocabulary size
func (v *Vectorizer) Size() int {
	return len(v.terms)
}

// Terms returns the vocabulary in feature-index order
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Transform vectorizes one document. Unknown tokens are ignored, so a
// document with no known tokens maps to the zero vector.
func (v *Vectorizer) Transform(doc string) []float64 {
	x := make([]float64, len(v.terms))
	for _, tok := range v.tokenizer.Tokenize(doc) {
		if i, ok := v.vocab[tok]; ok {
			x[i]++
		}
	}

	floats.Mul(x, v.idf)
	if norm := floats.Norm(x, 2); norm > 0 {
		floats.Scale(1/norm, x)
	}
	return x
}

// TransformAll vectorizes docs into a row-per-document matrix
func (v *Vectorizer) TransformAll(docs []string) *mat.Dense {
	m := mat.NewDense(len(docs), len(v.terms), nil)
	for i, doc := range docs {
		m.SetRow(i, v.Transform(doc))
	}
	return m
}
