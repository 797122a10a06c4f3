package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
)

func TestEmailClient_Send(t *testing.T) {
	t.Run("posts the email", func(t *testing.T) {
		var got Email
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewEmailClient(server.URL, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err := client.Send(context.Background(), Email{To: "a@b.com", Subject: "hi", Body: "there"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.To != "a@b.com" || got.Subject != "hi" {
			t.Errorf("unexpected email: %+v", got)
		}
	})

	t.Run("opens after repeated failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewEmailClient(server.URL, server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))

		for i := 0; i < 5; i++ {
			if err := client.Send(context.Background(), Email{To: "a@b.com"}); err == nil {
				t.Fatalf("expected failure on call %d", i)
			}
		}

		err := client.Send(context.Background(), Email{To: "a@b.com"})
		if !errors.Is(err, gobreaker.ErrOpenState) {
			t.Errorf("expected open breaker, got %v", err)
		}
		if calls.Load() != 5 {
			t.Errorf("expected 5 calls to reach the server, got %d", calls.Load())
		}
	})
}
