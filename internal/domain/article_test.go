package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRecordJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := ArticleRecord{
		Title:          "Acme beats estimates",
		Authors:        Authors{"Jane Roe", "John Doe"},
		PublishDate:    "2025-03-14",
		Summary:        "Acme posted record profit.",
		FullText:       "Acme reported record profit.",
		URL:            "https://www.nytimes.com/2025/03/14/business/acme.html",
		Sentiment:      SentimentPositive,
		SentimentScore: 0.93,
		Topics:         "Acme, $2 billion",
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded ArticleRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, original.Title, decoded.Title)
	assert.ElementsMatch(t, original.Authors, decoded.Authors)
	assert.ElementsMatch(t, original.TopicList(), decoded.TopicList())
	assert.Equal(t, original.PublishDate, decoded.PublishDate)
	assert.Equal(t, original.Summary, decoded.Summary)
	assert.Equal(t, original.FullText, decoded.FullText)
	assert.Equal(t, original.URL, decoded.URL)
	assert.Equal(t, original.Sentiment, decoded.Sentiment)
	assert.InDelta(t, original.SentimentScore, decoded.SentimentScore, 1e-9)
}

func TestAuthorsJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Authors(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `"Unknown"`, string(raw))

	var a Authors
	require.NoError(t, json.Unmarshal([]byte(`"Unknown"`), &a))
	assert.Empty(t, a)

	require.NoError(t, json.Unmarshal([]byte(`"Jane Roe, John Doe"`), &a))
	assert.Equal(t, Authors{"Jane Roe", "John Doe"}, a)

	require.NoError(t, json.Unmarshal([]byte(`["Jane Roe"]`), &a))
	assert.Equal(t, Authors{"Jane Roe"}, a)
	assert.Equal(t, "Jane Roe", a.String())
}

func TestSentimentRejectsUnknownLabel(t *testing.T) {
	t.Parallel()

	var s Sentiment
	assert.Error(t, json.Unmarshal([]byte(`"Ecstatic"`), &s))
	require.NoError(t, json.Unmarshal([]byte(`"Negative"`), &s))
	assert.Equal(t, SentimentNegative, s)
}

func TestSignedKeepsSignConsistent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.7, Signed(SentimentPositive, 0.7).Score)
	assert.Equal(t, -0.7, Signed(SentimentNegative, 0.7).Score)
	assert.Equal(t, -0.7, Signed(SentimentNegative, -0.7).Score)
	assert.Equal(t, NeutralResult, Signed(SentimentNeutral, 0.99))
	assert.Equal(t, NeutralResult, Signed(Sentiment("LABEL_9"), 0.99))
	assert.Equal(t, 1.0, Signed(SentimentPositive, 3).Score)
}

func TestFormatPublishDate(t *testing.T) {
	t.Parallel()

	var zero ArticlePartial
	assert.Equal(t, UnknownValue, FormatPublishDate(zero.PublishedAt))
}

func TestTopicListPlaceholder(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ArticleRecord{Topics: NoTopics}.TopicList())
	assert.Equal(t, []string{"Acme", "Globex"}, ArticleRecord{Topics: "Acme, Globex"}.TopicList())
}

func TestAudioKeys(t *testing.T) {
	t.Parallel()

	k := NewAudioKey("run-1", "Acme Corp.", 2)
	assert.Equal(t, "acme-corp_article_2.mp3", k.FileName())
	assert.Equal(t, "run-1/acme-corp_article_2.mp3", k.Path())

	a := AdhocAudioKey("run-1", "hello")
	b := AdhocAudioKey("run-1", "hello")
	assert.Equal(t, a, b)
	assert.Equal(t, AdhocLabel, a.Label)
	assert.Less(t, a.Index, 10000)

	other := NewAudioKey("run-2", "Acme Corp.", 2)
	assert.NotEqual(t, k.Path(), other.Path())
}

func TestDistribution(t *testing.T) {
	t.Parallel()

	rs := ResultSet{
		{Sentiment: SentimentPositive},
		{Sentiment: SentimentPositive},
		{Sentiment: SentimentNegative},
	}
	d := rs.Distribution()
	assert.Equal(t, 2, d[SentimentPositive])
	assert.Equal(t, 1, d[SentimentNegative])
	assert.Equal(t, 0, d[SentimentNeutral])
}
