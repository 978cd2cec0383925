package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
)

// CorpusService provides the training-corpus workflows on top of the repository
type CorpusService struct {
	repo *Repository
}

// NewCorpusService creates a new corpus service
func NewCorpusService(repo *Repository) *CorpusService {
	return &CorpusService{repo: repo}
}

// Repository exposes the underlying repository
func (s *CorpusService) Repository() *Repository {
	return s.repo
}

// ImportResult reports the outcome of a CSV import
type ImportResult struct {
	Stats    classifier.LoadStats `json:"stats"`
	Imported int                  `json:"imported"`
}

// ImportCSV loads labeled reviews from a CSV stream into the corpus
func (s *CorpusService) ImportCSV(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	examples, stats, err := classifier.LoadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load csv: %w", err)
	}

	n, err := s.AddExamples(ctx, examples, source)
	if err != nil {
		return nil, err
	}

	slog.Info("Imported training reviews",
		"source", source,
		"rows", stats.Rows,
		"imported", n,
		"skipped_empty", stats.EmptyText,
		"skipped_label", stats.InvalidLabel)

	return &ImportResult{Stats: stats, Imported: n}, nil
}

// AddExamples stores labeled examples in one transaction
func (s *CorpusService) AddExamples(ctx context.Context, examples []classifier.Example, source string) (int, error) {
	if len(examples) == 0 {
		return 0, nil
	}

	reviews := make([]Review, len(examples))
	for i, ex := range examples {
		reviews[i] = Review{Text: ex.Text, Label: ex.Label, Source: source}
	}
	return s.repo.AddReviews(ctx, reviews)
}

// TrainingExamples returns the whole corpus in a form the trainer accepts
func (s *CorpusService) TrainingExamples(ctx context.Context) ([]classifier.Example, error) {
	reviews, err := s.repo.ListReviews(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	examples := make([]classifier.Example, len(reviews))
	for i, rv := range reviews {
		examples[i] = classifier.Example{Text: rv.Text, Label: rv.Label}
	}
	return examples, nil
}
