package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/veritaslab/veritas/internal/model"
)

func testScrapeConfig() model.TranscriptConfig {
	cfg := model.DefaultConfig().Transcript
	cfg.StrategyTimeout = 5 * time.Second
	cfg.UserAgent = "test-agent"
	return cfg
}

func watchPage(tracksJSON string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><body><script>
var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s,"audioTracks":[]}}};
</script></body></html>`, tracksJSON)
}

func TestScraperFetchTimedText(t *testing.T) {
	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	var trackReq *http.Request
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "CONSENT=YES+1; Path=/")
		// double-escaped ampersand, as served on some watch pages
		tracks := fmt.Sprintf(`[{"baseUrl":"%s/track?video=abc\\u0026lang=en","languageCode":"en"}]`, server.URL)
		_, _ = w.Write([]byte(watchPage(tracks)))
	})
	mux.HandleFunc("/track", func(w http.ResponseWriter, r *http.Request) {
		trackReq = r.Clone(context.Background())
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
<text start="0.5" dur="2.25">hello &amp;amp; world</text>
<text start="2.75" dur="1.5">second
line</text>
</transcript>`))
	})

	s := NewScraper(testScrapeConfig(), nil, nil)
	s.watchBase = server.URL

	got, err := s.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0].Text != "hello & world" {
		t.Errorf("double-escaped entity not unescaped: %q", got[0].Text)
	}
	if got[0].Start != 0.5 || got[0].Duration != 2.25 {
		t.Errorf("timing: %+v", got[0])
	}
	if got[1].Text != "second line" {
		t.Errorf("newline not collapsed: %q", got[1].Text)
	}

	if trackReq == nil {
		t.Fatal("track never fetched")
	}
	if got := trackReq.URL.Query().Get("lang"); got != "en" {
		t.Errorf("escaped ampersand in track URL not decoded, lang = %q", got)
	}
	if ref := trackReq.Header.Get("Referer"); !strings.Contains(ref, "/watch?v=dQw4w9WgXcQ") {
		t.Errorf("Referer = %q", ref)
	}
	if cookie := trackReq.Header.Get("Cookie"); !strings.Contains(cookie, "CONSENT=YES+1") {
		t.Errorf("Cookie = %q", cookie)
	}
}

func TestScraperFetchJSON3Fallback(t *testing.T) {
	var mux http.ServeMux
	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		tracks := fmt.Sprintf(`[{"baseUrl":"%s/track","languageCode":"en"}]`, server.URL)
		_, _ = w.Write([]byte(watchPage(tracks)))
	})
	mux.HandleFunc("/track", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fmt") != "json3" {
			// too short to pass the minimum body check
			_, _ = w.Write([]byte("nope"))
			return
		}
		_, _ = w.Write([]byte(`{"events":[
			{"tStartMs":0,"dDurationMs":1500,"segs":[{"utf8":"split "},{"utf8":"event"}]},
			{"tStartMs":1500,"dDurationMs":500,"segs":[{"utf8":"\n"}]},
			{"tStartMs":2000,"dDurationMs":1000,"segs":[{"utf8":"tail"}]}
		]}`))
	})

	s := NewScraper(testScrapeConfig(), nil, nil)
	s.watchBase = server.URL

	got, err := s.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2 (newline-only event dropped)", len(got))
	}
	if got[0].Text != "split event" || got[0].Start != 0 || got[0].Duration != 1.5 {
		t.Errorf("first segment: %+v", got[0])
	}
	if got[1].Text != "tail" || got[1].Start != 2 {
		t.Errorf("second segment: %+v", got[1])
	}
}

func TestScraperFetchNoTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!DOCTYPE html><html><body>no captions here</body></html>`))
	}))
	defer server.Close()

	s := NewScraper(testScrapeConfig(), nil, nil)
	s.watchBase = server.URL

	_, err := s.Fetch(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err == nil || !strings.Contains(err.Error(), "no caption tracks") {
		t.Fatalf("expected no-tracks error, got %v", err)
	}
}

func TestExtractCaptionTracks(t *testing.T) {
	t.Run("brackets inside strings", func(t *testing.T) {
		page := watchPage(`[{"baseUrl":"https://example.com/t?q=[1]","languageCode":"en","name":{"simpleText":"English \"CC\" [auto]"}}]`)
		tracks, err := extractCaptionTracks(page)
		if err != nil {
			t.Fatalf("extractCaptionTracks: %v", err)
		}
		if len(tracks) != 1 || tracks[0].BaseURL != "https://example.com/t?q=[1]" {
			t.Errorf("tracks: %+v", tracks)
		}
	})

	t.Run("multiple tracks", func(t *testing.T) {
		page := watchPage(`[{"baseUrl":"u1","languageCode":"de"},{"baseUrl":"u2","languageCode":"en","kind":"asr"}]`)
		tracks, err := extractCaptionTracks(page)
		if err != nil {
			t.Fatalf("extractCaptionTracks: %v", err)
		}
		if len(tracks) != 2 || tracks[1].Kind != "asr" {
			t.Errorf("tracks: %+v", tracks)
		}
	})

	t.Run("missing marker", func(t *testing.T) {
		if _, err := extractCaptionTracks("<html>nothing</html>"); err == nil {
			t.Fatal("expected error without marker")
		}
	})

	t.Run("empty array", func(t *testing.T) {
		if _, err := extractCaptionTracks(watchPage(`[]`)); err == nil {
			t.Fatal("expected error for empty track list")
		}
	})

	t.Run("truncated array", func(t *testing.T) {
		if _, err := extractCaptionTracks(`"captionTracks":[{"baseUrl":"u1"`); err == nil {
			t.Fatal("expected error for unbalanced array")
		}
	})
}

func TestSortTracks(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "fr", LanguageCode: "fr"},
		{BaseURL: "en-asr", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "de", LanguageCode: "de"},
		{BaseURL: "en-manual", LanguageCode: "en"},
	}

	sorted := sortTracks(tracks)
	wantOrder := []string{"en-manual", "en-asr", "fr", "de"}
	for i, want := range wantOrder {
		if sorted[i].BaseURL != want {
			t.Errorf("position %d: got %q, want %q", i, sorted[i].BaseURL, want)
		}
	}

	if tracks[0].BaseURL != "fr" {
		t.Error("sortTracks mutated its input")
	}
}
