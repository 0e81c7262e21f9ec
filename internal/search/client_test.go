package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veritaslab/veritas/internal/model"
)

func testSearchConfig(baseURL string) model.SearchConfig {
	cfg := model.DefaultConfig().Search
	cfg.APIKey = "tvly-test-key"
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestClientSearch(t *testing.T) {
	var gotReq searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tvly-test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"answer": "Water boils at 100C at sea level.",
			"results": [
				{"title":"Boiling point","url":"https://en.wikipedia.org/wiki/Boiling_point","content":"At sea level...","score":0.97},
				{"title":"Thread","url":"https://reddit.com/r/science/abc","content":"someone said...","score":0.41}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(testSearchConfig(server.URL))
	resp, err := client.Search(context.Background(), "water boiling point celsius", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Query != "water boiling point celsius" {
		t.Errorf("query = %q", gotReq.Query)
	}
	if gotReq.SearchDepth != "basic" {
		t.Errorf("depth = %q, want config default", gotReq.SearchDepth)
	}
	if gotReq.MaxResults != 5 {
		t.Errorf("max_results = %d, want config default", gotReq.MaxResults)
	}
	if !gotReq.IncludeAnswer {
		t.Error("include_answer not set")
	}

	if resp.Answer == "" || len(resp.Results) != 2 {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Results[0].Score != 0.97 {
		t.Errorf("first score = %v", resp.Results[0].Score)
	}
}

func TestClientSearchOptionOverrides(t *testing.T) {
	var gotReq searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := NewClient(testSearchConfig(server.URL))
	if _, err := client.Search(context.Background(), "q", Options{Depth: "advanced", MaxResults: 2, Topic: "news"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotReq.SearchDepth != "advanced" || gotReq.MaxResults != 2 {
		t.Errorf("overrides not applied: %+v", gotReq)
	}
	if gotReq.Topic != "news" {
		t.Errorf("topic = %q, want passed through", gotReq.Topic)
	}
}

func TestClientSearchQuota(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"usage limit exceeded"}`, status)
		}))

		client := NewClient(testSearchConfig(server.URL))
		_, err := client.Search(context.Background(), "q", Options{})
		server.Close()

		if !IsQuotaExceeded(err) {
			t.Errorf("status %d: expected quota error, got %v", status, err)
		}
	}
}

func TestClientSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testSearchConfig(server.URL))
	_, err := client.Search(context.Background(), "q", Options{})
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if IsQuotaExceeded(err) {
		t.Error("500 misclassified as quota error")
	}
}

func TestClientSearchNoKey(t *testing.T) {
	cfg := model.DefaultConfig().Search
	cfg.APIKey = ""
	client := NewClient(cfg)

	if client.Enabled() {
		t.Error("client without key reports enabled")
	}
	_, err := client.Search(context.Background(), "q", Options{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("got %v, want ErrNoAPIKey", err)
	}
}
