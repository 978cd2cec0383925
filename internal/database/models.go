package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// Review is one labeled training example in the corpus
type Review struct {
	ID        string         `json:"id" db:"id"`
	Text      string         `json:"text" db:"text"`
	Label     analysis.Label `json:"label" db:"label"`
	Source    string         `json:"source,omitempty" db:"source"` // csv, api, cli
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// CorpusStats summarises the stored training corpus
type CorpusStats struct {
	Total   int                    `json:"total"`
	ByLabel map[analysis.Label]int `json:"by_label"`
}

// NewReview creates a review with a generated ID
func NewReview(text string, label analysis.Label, source string) *Review {
	return &Review{
		ID:        uuid.New().String(),
		Text:      text,
		Label:     label,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}
