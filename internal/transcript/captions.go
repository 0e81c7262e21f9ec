package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/veritaslab/veritas/internal/model"
)

// CaptionClient calls a third-party captions service that returns parsed
// transcript segments. This is the cheapest strategy and runs first.
type CaptionClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

type captionResponse struct {
	Segments []struct {
		Text     string  `json:"text"`
		Start    float64 `json:"start"`
		Duration float64 `json:"duration"`
	} `json:"segments"`
}

// NewCaptionClient creates a client for the captions endpoint at baseURL
func NewCaptionClient(baseURL, userAgent string, timeout time.Duration) *CaptionClient {
	return &CaptionClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Fetch retrieves caption segments for the referenced video
func (c *CaptionClient) Fetch(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("no captions endpoint configured")
	}

	endpoint := fmt.Sprintf("%s/api/transcript?video_id=%s", c.baseURL, url.QueryEscape(ref.VideoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captions service status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}

	var parsed captionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}

	var segments []model.TranscriptSegment
	for _, seg := range parsed.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, model.TranscriptSegment{
			Text:     text,
			Start:    seg.Start,
			Duration: seg.Duration,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("captions service returned no segments")
	}
	return segments, nil
}
