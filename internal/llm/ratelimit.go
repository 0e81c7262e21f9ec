package llm

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// rateLimitSignatures are the error-text fragments providers use to signal
// quota exhaustion when no structured status is available
var rateLimitSignatures = []string{
	"rate limit",
	"rate_limit",
	"429",
	"too many requests",
	"tokens per minute",
	"tokens per day",
	"quota",
}

var (
	// "4h2m15s", "7m59.68s", "23.5s", "765ms"
	retryAfterPattern = regexp.MustCompile(`(?:\d+h)?(?:\d+m)?\d+(?:\.\d+)?m?s\b`)
	// "4h", "4h2m", "45m" with no seconds component
	retryAfterCoarse = regexp.MustCompile(`\b\d+h(?:\d+m)?\b|\b\d+m\b`)
)

// IsRateLimited reports whether err is a provider rate-limit or quota
// rejection, as opposed to a fatal error
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// ParseRetryAfter extracts a retry-after hint embedded in free-text error
// messages ("Please try again in 7m59.68s"). Returns false when no hint of
// the <N>h<N>m<N>s family is present.
func ParseRetryAfter(text string) (time.Duration, bool) {
	match := retryAfterPattern.FindString(text)
	if match == "" {
		match = retryAfterCoarse.FindString(text)
	}
	if match == "" {
		return 0, false
	}
	d, err := time.ParseDuration(match)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
