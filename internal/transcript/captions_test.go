package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCaptionClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transcript" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("video_id"); got != "dQw4w9WgXcQ" {
			t.Errorf("video_id = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"segments":[
			{"text":"first line","start":0.5,"duration":2.1},
			{"text":"  ","start":2.6,"duration":1.0},
			{"text":"second line","start":3.6,"duration":1.8}
		]}`))
	}))
	defer server.Close()

	client := NewCaptionClient(server.URL, "test-agent", 5*time.Second)
	got, err := client.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2 (blank dropped)", len(got))
	}
	if got[0].Text != "first line" || got[0].Start != 0.5 {
		t.Errorf("first segment: %+v", got[0])
	}
	if got[1].Text != "second line" {
		t.Errorf("second segment: %+v", got[1])
	}
}

func TestCaptionClientErrors(t *testing.T) {
	t.Run("no base url", func(t *testing.T) {
		client := NewCaptionClient("", "test-agent", time.Second)
		if _, err := client.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"}); err == nil {
			t.Fatal("expected error with empty base URL")
		}
	})

	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewCaptionClient(server.URL, "test-agent", time.Second)
		if _, err := client.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"}); err == nil {
			t.Fatal("expected error on 503")
		}
	})

	t.Run("empty segments", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"segments":[]}`))
		}))
		defer server.Close()

		client := NewCaptionClient(server.URL, "test-agent", time.Second)
		if _, err := client.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"}); err == nil {
			t.Fatal("expected error on empty segment list")
		}
	})
}
