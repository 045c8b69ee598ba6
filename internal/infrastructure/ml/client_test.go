package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsNarrator/internal/annotate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	models := Models{Summary: "sum/model", Sentiment: "sent/model", Entity: "ner/model"}
	return NewClient(server.URL+"/", "secret", models, 0).WithHTTPClient(server.Client())
}

func TestClientSummarize(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sum/model", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Inputs     string         `json:"inputs"`
			Parameters map[string]any `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme reported record profit.", body.Inputs)
		assert.EqualValues(t, 30, body.Parameters["min_length"])
		assert.EqualValues(t, 130, body.Parameters["max_length"])

		_, _ = w.Write([]byte(`[{"summary_text":"Acme had a record quarter."}]`))
	})

	got, err := c.Summarize(context.Background(), "Acme reported record profit.", 30, 130)
	require.NoError(t, err)
	assert.Equal(t, "Acme had a record quarter.", got)
}

func TestClientClassifyPicksTopLabel(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		`[[{"label":"LABEL_0","score":0.05},{"label":"LABEL_2","score":0.9},{"label":"LABEL_1","score":0.05}]]`,
		`[{"label":"LABEL_1","score":0.1},{"label":"LABEL_2","score":0.9}]`,
	} {
		body := body
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/sent/model", r.URL.Path)
			_, _ = w.Write([]byte(body))
		})

		got, err := c.Classify(context.Background(), "great")
		require.NoError(t, err)
		assert.Equal(t, "LABEL_2", got.Label)
		assert.InDelta(t, 0.9, got.Score, 1e-9)
	}
}

func TestClientTagNormalizesEntityTypes(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ner/model", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"entity_group":"ORG","word":"Acme","score":0.99},
			{"entity":"B-LOC","word":"Ohio","score":0.97},
			{"entity_group":"money","word":"$5 billion","score":0.95},
			{"entity":"b-product","word":"Model Y","score":0.91},
			{"entity_group":"person","word":"Jane Roe","score":0.98}
		]`))
	})

	got, err := c.Tag(context.Background(), "Acme in Ohio")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "ORG", got[0].Type)
	assert.Equal(t, "Acme", got[0].Text)
	assert.Equal(t, "LOC", got[1].Type)
	assert.Equal(t, "MONEY", got[2].Type)
	assert.Equal(t, "PRODUCT", got[3].Type)
	assert.Equal(t, "PERSON", got[4].Type)

	topics, err := annotate.NewEntityExtractor(c).Topics(context.Background(), "Acme in Ohio spent $5 billion on Model Y.")
	require.NoError(t, err)
	assert.Equal(t, "Acme, Ohio, $5 billion, Model Y", topics)
}

func TestClientErrorStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model loading"}`, http.StatusServiceUnavailable)
	})

	_, err := c.Summarize(context.Background(), "text", 30, 130)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	assert.Error(t, c.Probe(context.Background()))
}

func TestClientProbe(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		paths []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	require.NoError(t, c.Probe(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/sum/model", "/sent/model", "/ner/model"}, paths)
}
