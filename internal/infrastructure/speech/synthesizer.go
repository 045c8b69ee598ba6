package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"NewsNarrator/internal/ports"
)

const (
	maxSpeechChunk = 200
	maxAudioBytes  = 10 << 20
)

// GoogleSynthesizer fetches MP3 speech from the translate_tts endpoint.
type GoogleSynthesizer struct {
	endpoint string
	client   *http.Client
}

var _ ports.Synthesizer = (*GoogleSynthesizer)(nil)

// NewGoogleSynthesizer wires an HTTP client; a nil client gets a 20s timeout.
func NewGoogleSynthesizer(endpoint string, client *http.Client) *GoogleSynthesizer {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GoogleSynthesizer{endpoint: endpoint, client: client}
}

// Synthesize requests each 200-character chunk and concatenates the MP3 frames.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := splitText(text, maxSpeechChunk)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("synthesize: empty text")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, &audio, chunk, lang, i, len(chunks)); err != nil {
			return nil, err
		}
	}
	return audio.Bytes(), nil
}

func (g *GoogleSynthesizer) fetchChunk(ctx context.Context, dst *bytes.Buffer, text, lang string, idx, total int) error {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("client", "tw-ob")
	query.Set("tl", lang)
	query.Set("q", text)
	query.Set("idx", strconv.Itoa(idx))
	query.Set("total", strconv.Itoa(total))
	query.Set("textlen", strconv.Itoa(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts: unexpected status %s", resp.Status)
	}

	n, err := io.Copy(dst, io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tts: empty audio for chunk %d", idx)
	}
	return nil
}
