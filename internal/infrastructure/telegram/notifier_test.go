package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestPublishDigest(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		text  string
		chat  string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"narrator","username":"narrator_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			text = r.Form.Get("text")
			chat = r.Form.Get("chat_id")
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	n := NewNotifier("token", 42).WithEndpoint(server.URL+"/bot%s/%s", server.Client())
	for i := 0; i < 2; i++ {
		if err := n.PublishDigest(context.Background(), "Acme: 1 articles"); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if text != "Acme: 1 articles" || chat != "42" {
		t.Fatalf("unexpected message %q to %q", text, chat)
	}
	want := []string{"/bottoken/getMe", "/bottoken/sendMessage", "/bottoken/sendMessage"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestPublishDigestMisconfigured(t *testing.T) {
	if err := NewNotifier("", 0).PublishDigest(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}
