package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsNarrator/internal/ports"
)

const maxTranslateChunk = 4500

// GoogleTranslator calls the public translate_a/single endpoint.
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

var _ ports.Translator = (*GoogleTranslator)(nil)

// NewGoogleTranslator wires an HTTP client; a nil client gets a 20s timeout.
func NewGoogleTranslator(endpoint string, client *http.Client) *GoogleTranslator {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GoogleTranslator{endpoint: endpoint, client: client}
}

// Translate sends text in chunks and joins the translated pieces.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	chunks := splitText(text, maxTranslateChunk)
	if len(chunks) == 0 {
		return "", fmt.Errorf("translate: empty text")
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		translated, err := g.translateChunk(ctx, chunk, source, target)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}
	return strings.Join(out, " "), nil
}

func (g *GoogleTranslator) translateChunk(ctx context.Context, text, source, target string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", source)
	query.Set("tl", target)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("translate: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	return joinSegments(payload)
}

// joinSegments reads [[["translated","original",...],...],...] and concatenates the translated parts.
func joinSegments(payload []json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}

	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("translate: no translated text")
	}
	return b.String(), nil
}
