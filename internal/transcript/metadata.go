package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/util"
)

// MetadataFetcher builds a minimal transcript substitute from the video's
// title, author, and description. It is the last resort when no spoken
// text can be obtained, and it only succeeds when the combined metadata is
// substantial enough to extract claims from.
type MetadataFetcher struct {
	oembedBase string // overridable for tests
	watchBase  string // overridable for tests
	httpClient *http.Client
	userAgent  string
	minChars   int
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// NewMetadataFetcher creates the metadata strategy
func NewMetadataFetcher(cfg model.TranscriptConfig) *MetadataFetcher {
	return &MetadataFetcher{
		oembedBase: "https://www.youtube.com",
		watchBase:  "https://www.youtube.com",
		httpClient: util.NewHTTPClient(cfg.StrategyTimeout, cfg.HTTPProxy, cfg.HTTPSProxy),
		userAgent:  cfg.UserAgent,
		minChars:   cfg.MetadataMinChars,
	}
}

// Fetch assembles title, author, and description into a single segment
func (m *MetadataFetcher) Fetch(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
	var parts []string

	if title, author, err := m.fetchOEmbed(ctx, ref); err == nil {
		if title != "" {
			parts = append(parts, "Video title: "+title)
		}
		if author != "" {
			parts = append(parts, "Channel: "+author)
		}
	}

	if desc, err := m.fetchDescription(ctx, ref); err == nil && desc != "" {
		parts = append(parts, "Description: "+desc)
	}

	text := strings.TrimSpace(strings.Join(parts, ". "))
	if len(text) < m.minChars {
		return nil, fmt.Errorf("metadata too thin (%d chars, need %d)", len(text), m.minChars)
	}

	return []model.TranscriptSegment{{Text: text, Start: 0, Duration: 0}}, nil
}

func (m *MetadataFetcher) fetchOEmbed(ctx context.Context, ref Ref) (string, string, error) {
	watchURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", ref.VideoID)
	endpoint := fmt.Sprintf("%s/oembed?url=%s&format=json", m.oembedBase, url.QueryEscape(watchURL))

	body, err := m.get(ctx, endpoint)
	if err != nil {
		return "", "", err
	}

	var parsed oembedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("decode oembed: %w", err)
	}
	return parsed.Title, parsed.AuthorName, nil
}

func (m *MetadataFetcher) fetchDescription(ctx context.Context, ref Ref) (string, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", m.watchBase, ref.VideoID)
	body, err := m.get(ctx, watchURL)
	if err != nil {
		return "", err
	}
	return extractMetaDescription(string(body)), nil
}

func (m *MetadataFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, endpoint)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}

// extractMetaDescription walks the parsed HTML for the description meta
// tag, preferring og:description over the plain name variant
func extractMetaDescription(pageHTML string) string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	var plain, og string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, property, content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "property":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if property == "og:description" && og == "" {
				og = content
			}
			if name == "description" && plain == "" {
				plain = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if og != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(plain)
}
