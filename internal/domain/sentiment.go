package domain

import (
	"encoding/json"
	"fmt"
)

// Sentiment is the discrete polarity of an article.
type Sentiment string

const (
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
	SentimentPositive Sentiment = "Positive"
)

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentNegative, SentimentNeutral, SentimentPositive:
		return true
	}
	return false
}

func (s *Sentiment) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}
	v := Sentiment(raw)
	if !v.Valid() {
		return fmt.Errorf("sentiment: unknown label %q", raw)
	}
	*s = v
	return nil
}

// SentimentResult pairs a label with its signed score.
type SentimentResult struct {
	Label Sentiment
	Score float64
}

// NeutralResult is returned for empty input.
var NeutralResult = SentimentResult{Label: SentimentNeutral, Score: 0}

// Signed builds a result whose score sign always matches the label.
func Signed(label Sentiment, confidence float64) SentimentResult {
	if confidence < 0 {
		confidence = -confidence
	}
	if confidence > 1 {
		confidence = 1
	}
	// A zero-confidence polar label would break the sign invariant.
	if confidence == 0 {
		return NeutralResult
	}
	switch label {
	case SentimentPositive:
		return SentimentResult{Label: label, Score: confidence}
	case SentimentNegative:
		return SentimentResult{Label: label, Score: -confidence}
	default:
		return NeutralResult
	}
}

// Distribution counts records per sentiment label.
func (rs ResultSet) Distribution() map[Sentiment]int {
	counts := map[Sentiment]int{
		SentimentNegative: 0,
		SentimentNeutral:  0,
		SentimentPositive: 0,
	}
	for _, r := range rs {
		counts[r.Sentiment]++
	}
	return counts
}
