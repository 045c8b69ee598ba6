package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitText("   ", 10))
	assert.Equal(t, []string{"short"}, splitText("short", 10))

	chunks := splitText("Acme grew. Profits rose sharply this quarter. Shares jumped", 20)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20)
	}
	assert.Equal(t, "Acme grew.", chunks[0])
	assert.Equal(t, "Acme grew. Profits rose sharply this quarter. Shares jumped",
		strings.Join(chunks, " "))

	hard := splitText(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, hard)
}

func TestGoogleTranslator(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "en", q.Get("sl"))
		assert.Equal(t, "hi", q.Get("tl"))
		assert.Equal(t, "Acme grew. Profits rose.", q.Get("q"))
		_, _ = w.Write([]byte(`[[["एक्मे बढ़ी। ","Acme grew. ",null,null,10],["मुनाफा बढ़ा।","Profits rose.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	tr := NewGoogleTranslator(server.URL, server.Client())
	got, err := tr.Translate(context.Background(), "Acme grew. Profits rose.", "en", "hi")
	require.NoError(t, err)
	assert.Equal(t, "एक्मे बढ़ी। मुनाफा बढ़ा।", got)
}

func TestGoogleTranslatorFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewGoogleTranslator(server.URL, server.Client()).Translate(context.Background(), "hi", "en", "hi")
	assert.Error(t, err)

	_, err = NewGoogleTranslator(server.URL, server.Client()).Translate(context.Background(), "  ", "en", "hi")
	assert.Error(t, err)
}

func TestGoogleSynthesizerConcatenatesChunks(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		langs []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		langs = append(langs, r.URL.Query().Get("tl"))
		mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3" + r.URL.Query().Get("idx")))
	}))
	defer server.Close()

	text := strings.Repeat("word ", 60)
	audio, err := NewGoogleSynthesizer(server.URL, server.Client()).Synthesize(context.Background(), text, "hi")
	require.NoError(t, err)
	assert.Equal(t, "ID30ID31", string(audio))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hi", "hi"}, langs)
}

func TestGoogleSynthesizerEmptyAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewGoogleSynthesizer(server.URL, server.Client()).Synthesize(context.Background(), "hello", "en")
	assert.Error(t, err)
}
