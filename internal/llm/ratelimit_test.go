package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		text string
		want time.Duration
		ok   bool
	}{
		{"Please try again in 4h2m15s.", 4*time.Hour + 2*time.Minute + 15*time.Second, true},
		{"Rate limit reached. Please try again in 7m59.68s", 7*time.Minute + 59680*time.Millisecond, true},
		{"try again in 23.5s", 23500 * time.Millisecond, true},
		{"try again in 765ms", 765 * time.Millisecond, true},
		{"try again in 45m", 45 * time.Minute, true},
		{"try again in 4h2m", 4*time.Hour + 2*time.Minute, true},
		{"rate limit exceeded", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRetryAfter(tt.text)
		if ok != tt.ok {
			t.Errorf("ParseRetryAfter(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api 429", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"api 500", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, false},
		{"rate limit text", errors.New("Rate limit reached for model llama-3.3-70b"), true},
		{"tpm text", errors.New("you have exceeded your tokens per minute allowance"), true},
		{"quota text", errors.New("daily quota exhausted"), true},
		{"wrapped 429", fmt.Errorf("call failed: %w", &openai.APIError{HTTPStatusCode: 429}), true},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimited(tt.err); got != tt.want {
				t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
