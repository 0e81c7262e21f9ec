package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/util"
)

const captionTracksMarker = `"captionTracks":`

// Scraper pulls captions straight off the watch page: it locates the
// embedded caption-track manifest, picks the best track, and fetches the
// track content in whichever sub-format parses first (timed-text XML, then
// JSON events). Runs when the captions service fails.
type Scraper struct {
	watchBase  string // overridable for tests
	httpClient *http.Client
	userAgent  string
	robots     *util.RobotsChecker // nil disables robots gating
	log        *zap.Logger
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// NewScraper creates a page scraper with browser-like headers
func NewScraper(cfg model.TranscriptConfig, robots *util.RobotsChecker, log *zap.Logger) *Scraper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{
		watchBase:  "https://www.youtube.com",
		httpClient: util.NewHTTPClient(cfg.StrategyTimeout, cfg.HTTPProxy, cfg.HTTPSProxy),
		userAgent:  cfg.UserAgent,
		robots:     robots,
		log:        log,
	}
}

// Fetch scrapes the watch page and returns parsed caption segments
func (s *Scraper) Fetch(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", s.watchBase, ref.VideoID)

	if s.robots != nil && !s.robots.IsAllowed(ctx, watchURL) {
		return nil, fmt.Errorf("robots.txt disallows fetching %s", watchURL)
	}

	pageHTML, cookies, err := s.fetchWatchPage(ctx, watchURL)
	if err != nil {
		return nil, err
	}

	tracks, err := extractCaptionTracks(pageHTML)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"User-Agent":      s.userAgent,
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         watchURL,
	}
	if cookies != "" {
		headers["Cookie"] = cookies
	}

	for _, track := range sortTracks(tracks) {
		// some pages double-escape the track URL
		baseURL := strings.ReplaceAll(track.BaseURL, `\u0026`, "&")

		// Sub-format 1: timed-text XML (the default)
		if body, err := s.fetchTrack(ctx, baseURL, headers); err == nil {
			if segments := parseTimedText(body); len(segments) > 0 {
				s.log.Debug("caption track parsed",
					zap.String("lang", track.LanguageCode),
					zap.String("format", "xml"),
					zap.Int("segments", len(segments)))
				return segments, nil
			}
		}

		// Sub-format 2: json3 events
		sep := "?"
		if strings.Contains(baseURL, "?") {
			sep = "&"
		}
		if body, err := s.fetchTrack(ctx, baseURL+sep+"fmt=json3", headers); err == nil {
			if segments := parseJSON3(body); len(segments) > 0 {
				s.log.Debug("caption track parsed",
					zap.String("lang", track.LanguageCode),
					zap.String("format", "json3"),
					zap.Int("segments", len(segments)))
				return segments, nil
			}
		}
	}

	return nil, fmt.Errorf("all %d caption tracks returned empty transcripts", len(tracks))
}

func (s *Scraper) fetchWatchPage(ctx context.Context, watchURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch watch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("watch page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", "", fmt.Errorf("read watch page: %w", err)
	}

	cookies := strings.Join(resp.Header.Values("Set-Cookie"), "; ")
	return string(body), cookies, nil
}

func (s *Scraper) fetchTrack(ctx context.Context, trackURL string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch track: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("track status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read track: %w", err)
	}
	if len(body) < 50 {
		return "", fmt.Errorf("track body too short (%d bytes)", len(body))
	}
	return string(body), nil
}

// extractCaptionTracks locates the caption-track manifest in the watch page
// by balanced-bracket extraction. Regex across the whole document is not
// viable because track URLs contain escaped characters.
func extractCaptionTracks(pageHTML string) ([]captionTrack, error) {
	markerIdx := strings.Index(pageHTML, captionTracksMarker)
	if markerIdx < 0 {
		return nil, fmt.Errorf("no caption tracks found in page HTML")
	}

	start := markerIdx + len(captionTracksMarker)
	depth := 0
	inString := false
	escaped := false
	end := -1

	for i := start; i < len(pageHTML); i++ {
		c := pageHTML[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					end = i + 1
				}
			}
		}
		if end > 0 {
			break
		}
	}
	if end <= start {
		return nil, fmt.Errorf("unbalanced caption tracks array")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(pageHTML[start:end]), &tracks); err != nil {
		return nil, fmt.Errorf("parse caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("caption tracks array is empty")
	}
	return tracks, nil
}

// sortTracks orders tracks by priority: manual English, auto English, then
// everything else, preserving manifest order within each class
func sortTracks(tracks []captionTrack) []captionTrack {
	sorted := make([]captionTrack, len(tracks))
	copy(sorted, tracks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return trackPriority(sorted[i]) < trackPriority(sorted[j])
	})
	return sorted
}

func trackPriority(t captionTrack) int {
	switch {
	case t.LanguageCode == "en" && t.Kind != "asr":
		return 0
	case t.LanguageCode == "en":
		return 1
	default:
		return 2
	}
}

type timedTextDoc struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextSeg `xml:"text"`
}

type timedTextSeg struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

// parseTimedText parses the default XML caption format. Caption bodies are
// frequently double-escaped, so entities are unescaped after XML decoding.
func parseTimedText(body string) []model.TranscriptSegment {
	var doc timedTextDoc
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return nil
	}

	var segments []model.TranscriptSegment
	for _, seg := range doc.Texts {
		text := strings.TrimSpace(strings.ReplaceAll(html.UnescapeString(seg.Body), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, model.TranscriptSegment{
			Text:     text,
			Start:    seg.Start,
			Duration: seg.Dur,
		})
	}
	return segments
}

type json3Doc struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// parseJSON3 parses the json3 events caption format
func parseJSON3(body string) []model.TranscriptSegment {
	var doc json3Doc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil
	}

	var segments []model.TranscriptSegment
	for _, ev := range doc.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, s := range ev.Segs {
			b.WriteString(s.UTF8)
		}
		text := strings.TrimSpace(b.String())
		if text == "" || text == "\n" {
			continue
		}
		segments = append(segments, model.TranscriptSegment{
			Text:     text,
			Start:    float64(ev.TStartMs) / 1000,
			Duration: float64(ev.DDurationMs) / 1000,
		})
	}
	return segments
}
