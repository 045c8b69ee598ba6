package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// UnknownValue fills authors and publish_date when the source has none.
	UnknownValue = "Unknown"
	// SummaryUnavailable is returned instead of a summary for empty bodies.
	SummaryUnavailable = "Summary not available"
	// NoTopics replaces an empty topic set.
	NoTopics = "No relevant topics detected"

	dateLayout = "2006-01-02"
)

// ArticlePartial is what the fetcher extracts from a single page.
type ArticlePartial struct {
	URL         string
	Title       string
	Authors     []string
	PublishedAt time.Time
	FullText    string
}

// ArticleRecord is one row of pipeline output. It is assembled once and never mutated.
type ArticleRecord struct {
	Title          string    `json:"title"`
	Authors        Authors   `json:"authors"`
	PublishDate    string    `json:"publish_date"`
	Summary        string    `json:"summary"`
	FullText       string    `json:"full_text"`
	URL            string    `json:"url"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Topics         string    `json:"topics"`
}

// TopicList splits Topics back into entity strings; the placeholder yields nil.
func (r ArticleRecord) TopicList() []string {
	if r.Topics == "" || r.Topics == NoTopics {
		return nil
	}
	return strings.Split(r.Topics, ", ")
}

// ResultSet is the ordered output of one company query. Empty means no articles were found.
type ResultSet []ArticleRecord

// FormatPublishDate renders a publish time the way records carry it.
func FormatPublishDate(t time.Time) string {
	if t.IsZero() {
		return UnknownValue
	}
	return t.Format(dateLayout)
}

// Authors marshals as a JSON array, or as the literal "Unknown" when empty.
type Authors []string

func (a Authors) MarshalJSON() ([]byte, error) {
	if len(a) == 0 {
		return json.Marshal(UnknownValue)
	}
	return json.Marshal([]string(a))
}

func (a *Authors) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		switch strings.TrimSpace(single) {
		case "", UnknownValue:
			*a = nil
		default:
			*a = Authors(strings.Split(single, ", "))
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("authors: %w", err)
	}
	*a = Authors(list)
	return nil
}

// String joins authors the way the dashboard prints them.
func (a Authors) String() string {
	if len(a) == 0 {
		return UnknownValue
	}
	return strings.Join(a, ", ")
}

// Run captures a single pipeline execution for one company.
type Run struct {
	ID         string    `json:"id"`
	Company    string    `json:"company"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Discovered int       `json:"discovered"`
	Failed     int       `json:"failed"`
	Records    ResultSet `json:"records"`
}
