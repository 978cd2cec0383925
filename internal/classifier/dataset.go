package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
)

const (
	textColumn  = "review_text"
	labelColumn = "sentiment"
)

// ErrMissingColumn means the CSV header lacks a required column
var ErrMissingColumn = errors.New("csv header missing required column")

// LoadStats describes what LoadCSV kept and dropped
type LoadStats struct {
	Rows         int `json:"rows"`
	Loaded       int `json:"loaded"`
	EmptyText    int `json:"empty_text"`
	InvalidLabel int `json:"invalid_label"`
}

// LoadCSV reads labeled reviews from a CSV with a header row naming the
// review_text and sentiment columns. Rows with blank text or an unknown
// label are skipped and counted.
func LoadCSV(r io.Reader) ([]Example, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%w: empty file", ErrMissingColumn)
		}
		return nil, stats, fmt.Errorf("read csv header: %w", err)
	}

	textCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case textColumn:
			textCol = i
		case labelColumn:
			labelCol = i
		}
	}
	if textCol < 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, textColumn)
	}
	if labelCol < 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, labelColumn)
	}

	var examples []Example
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv row %d: %w", stats.Rows+2, err)
		}
		stats.Rows++

		if textCol >= len(record) || labelCol >= len(record) {
			stats.EmptyText++
			continue
		}

		text := strings.TrimSpace(record[textCol])
		if text == "" {
			stats.EmptyText++
			continue
		}
		label, err := analysis.ParseLabel(record[labelCol])
		if err != nil {
			stats.InvalidLabel++
			continue
		}

		examples = append(examples, Example{Text: text, Label: label})
		stats.Loaded++
	}

	return examples, stats, nil
}
