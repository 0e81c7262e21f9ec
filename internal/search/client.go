// Package search wraps the web-search provider used to ground claim
// verification, and reranks results by domain trust so authoritative
// sources dominate the evidence passed to the model.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/veritaslab/veritas/internal/model"
)

// ErrNoAPIKey is returned when the client is constructed without
// credentials and a search is attempted.
var ErrNoAPIKey = errors.New("search: no API key configured")

// QuotaError marks a provider quota or rate-limit rejection. Callers treat
// it as a signal to stop searching for a while, not as a fatal failure.
type QuotaError struct {
	StatusCode int
	Body       string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("search quota exceeded (status %d): %s", e.StatusCode, e.Body)
}

// IsQuotaExceeded reports whether err is a provider quota rejection
func IsQuotaExceeded(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// Result is a single web search hit
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the provider's answer to one query
type Response struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// Options tune a single search call. Zero values fall back to the
// client's configured defaults. Topic scopes the query and is omitted from
// the request when empty.
type Options struct {
	Depth      string
	MaxResults int
	Topic      string
}

// Client talks to the search provider's REST API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	defaultDepth      string
	defaultMaxResults int
}

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	Topic         string `json:"topic,omitempty"`
}

// NewClient creates a search client from config
func NewClient(cfg model.SearchConfig) *Client {
	return &Client{
		baseURL:           strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:            cfg.APIKey,
		httpClient:        &http.Client{Timeout: cfg.Timeout},
		defaultDepth:      cfg.Depth,
		defaultMaxResults: cfg.MaxResults,
	}
}

// Enabled reports whether the client has credentials to search with
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Search runs one query and returns ranked results plus the provider's
// synthesized answer when available
func (c *Client) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	depth := opts.Depth
	if depth == "" {
		depth = c.defaultDepth
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.defaultMaxResults
	}

	payload, err := json.Marshal(searchRequest{
		Query:         query,
		SearchDepth:   depth,
		MaxResults:    maxResults,
		IncludeAnswer: true,
		Topic:         opts.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusForbidden:
		return nil, &QuotaError{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	default:
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &parsed, nil
}

func truncateBody(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
