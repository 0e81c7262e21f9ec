package search

import (
	"net/url"
	"sort"
	"strings"
)

// lowTrustDomains are user-generated or unmoderated sources. Their content
// is still usable context but must never outrank an authoritative source.
var lowTrustDomains = []string{
	"reddit.com",
	"quora.com",
	"answers.yahoo.com",
	"4chan.org",
	"8kun.top",
	"fandom.com",
	"tumblr.com",
	"pinterest.com",
	"tiktok.com",
	"medium.com",
	"substack.com",
	"blogspot.com",
	"wordpress.com",
}

// highTrustDomains are institutional, scientific, or established
// fact-checking sources
var highTrustDomains = []string{
	"who.int",
	"un.org",
	"europa.eu",
	"nature.com",
	"science.org",
	"nejm.org",
	"thelancet.com",
	"britannica.com",
	"reuters.com",
	"apnews.com",
	"bbc.com",
	"bbc.co.uk",
	"npr.org",
	"factcheck.org",
	"snopes.com",
	"politifact.com",
}

var highTrustSuffixes = []string{".gov", ".edu", ".mil"}

// DomainTrust scores a result URL: +1 authoritative, -1 user-generated,
// 0 everything else (including unparsable URLs)
func DomainTrust(rawURL string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return 0
	}
	host := strings.ToLower(parsed.Hostname())

	for _, suffix := range highTrustSuffixes {
		if strings.HasSuffix(host, suffix) {
			return 1
		}
	}
	for _, domain := range highTrustDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return 1
		}
	}
	for _, domain := range lowTrustDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return -1
		}
	}
	return 0
}

// Rerank orders results by domain trust first and provider relevance
// second. Trust strictly dominates: a high-trust result always precedes a
// lower-trust one regardless of relevance score. Equal-key results keep
// their provider order. The input slice is not modified.
func Rerank(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := DomainTrust(ranked[i].URL), DomainTrust(ranked[j].URL)
		if ti != tj {
			return ti > tj
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
