package annotate

import (
	"context"
	"strings"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// MaxSentimentInput is the classifier context window, in characters.
const MaxSentimentInput = 512

var labelMap = map[string]domain.Sentiment{
	"label_0":  domain.SentimentNegative,
	"label_1":  domain.SentimentNeutral,
	"label_2":  domain.SentimentPositive,
	"negative": domain.SentimentNegative,
	"neutral":  domain.SentimentNeutral,
	"positive": domain.SentimentPositive,
}

// SentimentClassifier maps raw three-class predictions onto signed scores.
type SentimentClassifier struct {
	backend ports.Classifier
}

func NewSentimentClassifier(backend ports.Classifier) *SentimentClassifier {
	return &SentimentClassifier{backend: backend}
}

// Classify scores the first 512 characters of text. Blank text is Neutral/0 without a model call.
func (c *SentimentClassifier) Classify(ctx context.Context, text string) (domain.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.NeutralResult, nil
	}

	raw, err := c.backend.Classify(ctx, truncateRunes(text, MaxSentimentInput))
	if err != nil {
		return domain.SentimentResult{}, err
	}

	return domain.Signed(MapLabel(raw.Label), raw.Score), nil
}

// MapLabel resolves a model label; anything unrecognised is Neutral.
func MapLabel(label string) domain.Sentiment {
	if s, ok := labelMap[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return domain.SentimentNeutral
}

func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
