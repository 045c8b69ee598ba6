// Package annotate wraps the black-box NLP capabilities with the edge-case
// policy every record relies on: placeholders for empty input, input
// truncation, label mapping and topic deduplication. Backend errors are
// returned unchanged so the pipeline can drop the article.
package annotate

import (
	"context"
	"strings"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const (
	DefaultMinSummaryLength = 30
	DefaultMaxSummaryLength = 130
)

// Summarizer limits summaries to a length band.
type Summarizer struct {
	backend   ports.Summarizer
	minLength int
	maxLength int
}

// NewSummarizer falls back to the 30/130 band when the bounds are unset or inverted.
func NewSummarizer(backend ports.Summarizer, minLength, maxLength int) *Summarizer {
	if minLength <= 0 {
		minLength = DefaultMinSummaryLength
	}
	if maxLength <= 0 || maxLength < minLength {
		maxLength = DefaultMaxSummaryLength
	}
	return &Summarizer{backend: backend, minLength: minLength, maxLength: maxLength}
}

// Summarize returns the placeholder for empty text without calling the backend.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return domain.SummaryUnavailable, nil
	}

	summary, err := s.backend.Summarize(ctx, text, s.minLength, s.maxLength)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return domain.SummaryUnavailable, nil
	}
	return summary, nil
}
