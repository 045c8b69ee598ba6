package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"NewsNarrator/internal/ports"
)

// Models names the hosted model behind each capability.
type Models struct {
	Summary   string
	Sentiment string
	Entity    string
}

// Client talks to a HuggingFace-style inference service for summaries, sentiment and entities.
type Client struct {
	endpoint string
	apiKey   string
	models   Models
	http     *http.Client
}

var (
	_ ports.Summarizer   = (*Client)(nil)
	_ ports.Classifier   = (*Client)(nil)
	_ ports.EntityTagger = (*Client)(nil)
	_ ports.Prober       = (*Client)(nil)
)

// NewClient creates a reusable HTTP client; timeout <= 0 means 60s.
func NewClient(endpoint, apiKey string, models Models, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		models:   models,
		http:     &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, used by tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.http = client
	return c
}

// Summarize requests an abstractive summary bounded by min/max length.
func (c *Client) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	payload := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"min_length": minLength,
			"max_length": maxLength,
			"do_sample":  false,
		},
		"options": map[string]any{"wait_for_model": true},
	}

	var resp []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := c.post(ctx, c.models.Summary, payload, &resp); err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("summarize: empty response")
	}
	return resp[0].SummaryText, nil
}

// Classify returns the top-scoring label for text.
func (c *Client) Classify(ctx context.Context, text string) (ports.LabelScore, error) {
	payload := map[string]any{
		"inputs":  text,
		"options": map[string]any{"wait_for_model": true},
	}

	var raw json.RawMessage
	if err := c.post(ctx, c.models.Sentiment, payload, &raw); err != nil {
		return ports.LabelScore{}, fmt.Errorf("classify: %w", err)
	}

	scores, err := decodeScores(raw)
	if err != nil {
		return ports.LabelScore{}, fmt.Errorf("classify: %w", err)
	}
	if len(scores) == 0 {
		return ports.LabelScore{}, fmt.Errorf("classify: empty response")
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores[0], nil
}

// decodeScores accepts both the flat and the per-input nested response shapes.
func decodeScores(raw json.RawMessage) ([]ports.LabelScore, error) {
	var nested [][]ports.LabelScore
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}
	var flat []ports.LabelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return flat, nil
}

// Tag runs token classification with span aggregation.
func (c *Client) Tag(ctx context.Context, text string) ([]ports.Entity, error) {
	payload := map[string]any{
		"inputs":     text,
		"parameters": map[string]any{"aggregation_strategy": "simple"},
		"options":    map[string]any{"wait_for_model": true},
	}

	var resp []struct {
		EntityGroup string `json:"entity_group"`
		Entity      string `json:"entity"`
		Word        string `json:"word"`
	}
	if err := c.post(ctx, c.models.Entity, payload, &resp); err != nil {
		return nil, fmt.Errorf("tag entities: %w", err)
	}

	entities := make([]ports.Entity, 0, len(resp))
	for _, r := range resp {
		// OntoNotes checkpoints emit lower-case groups ("money", "b-product").
		kind := strings.ToUpper(r.EntityGroup)
		if kind == "" {
			kind = strings.ToUpper(r.Entity)
			kind = strings.TrimPrefix(strings.TrimPrefix(kind, "B-"), "I-")
		}
		entities = append(entities, ports.Entity{Text: r.Word, Type: kind})
	}
	return entities, nil
}

// Probe checks that the service answers for every configured model.
func (c *Client) Probe(ctx context.Context) error {
	for _, model := range []string{c.models.Summary, c.models.Sentiment, c.models.Entity} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/"+model, nil)
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("probe %s: %w", model, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("probe %s: unexpected status %s", model, resp.Status)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) post(ctx context.Context, model string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+model, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
