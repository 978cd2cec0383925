package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

// ErrEmptyReview means a review with blank text was submitted
var ErrEmptyReview = errors.New("review text is empty")

// Repository handles corpus database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func validateReview(text string, label analysis.Label) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyReview
	}
	if !label.Valid() {
		return fmt.Errorf("%w: %q", analysis.ErrInvalidLabel, label)
	}
	return nil
}

// AddReviews stores many reviews in one transaction. Nothing is written
// if any review is invalid.
func (r *Repository) AddReviews(ctx context.Context, reviews []Review) (int, error) {
	for i, rv := range reviews {
		if err := validateReview(rv.Text, rv.Label); err != nil {
			return 0, fmt.Errorf("review %d: %w", i, err)
		}
	}

	stmt, err := r.db.GetPreparedStatement("insert_review")
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStmt := tx.StmtContext(ctx, stmt)
	for _, rv := range reviews {
		review := NewReview(strings.TrimSpace(rv.Text), rv.Label, rv.Source)
		if _, err := txStmt.ExecContext(ctx, review.ID, review.Text, review.Label, review.Source, review.CreatedAt); err != nil {
			return 0, fmt.Errorf("failed to insert review: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reviews: %w", err)
	}

	return len(reviews), nil
}

// ListReviews returns stored reviews, newest first. A limit <= 0 returns
// every review.
func (r *Repository) ListReviews(ctx context.Context, limit, offset int) ([]Review, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	stmt, err := r.db.GetPreparedStatement("list_reviews")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.Text, &rv.Label, &rv.Source, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

// CountByLabel returns the number of stored reviews per label
func (r *Repository) CountByLabel(ctx context.Context) (map[analysis.Label]int, error) {
	stmt, err := r.db.GetPreparedStatement("count_by_label")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	defer rows.Close()

	counts := make(map[analysis.Label]int, len(analysis.Labels))
	for _, l := range analysis.Labels {
		counts[l] = 0
	}
	for rows.Next() {
		var label analysis.Label
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[label] = n
	}

	return counts, rows.Err()
}

// Count returns the total number of stored reviews
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return n, nil
}

// Stats returns the corpus totals
func (r *Repository) Stats(ctx context.Context) (*CorpusStats, error) {
	byLabel, err := r.CountByLabel(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CorpusStats{ByLabel: byLabel}
	for _, n := range byLabel {
		stats.Total += n
	}
	return stats, nil
}
