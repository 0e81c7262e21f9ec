package model

import "strings"

// TranscriptSegment is one chunk of transcript text with its position in the
// source. Strategies that produce a single undifferentiated block (audio,
// metadata) emit one zero-duration segment.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`    // seconds from start of source
	Duration float64 `json:"duration"` // seconds
}

// JoinSegments concatenates segment text in chronological order
func JoinSegments(segments []TranscriptSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(strings.TrimSpace(seg.Text))
	}
	return strings.TrimSpace(b.String())
}

// ExtractedClaim is a self-contained factual assertion pulled out of the
// transcript, plus the search query used to verify it
type ExtractedClaim struct {
	Claim     string `json:"claim"`
	Timestamp string `json:"timestamp"` // "MM:SS" or "Unknown"
	Query     string `json:"query"`     // search query
}

// Verdict is the tri-state outcome of verifying a claim
type Verdict string

const (
	VerdictTrue       Verdict = "True"
	VerdictFalse      Verdict = "False"
	VerdictUnverified Verdict = "Unverified"
)

// ParseVerdict normalizes a model-reported verdict string. Anything that is
// not clearly True or False collapses to Unverified.
func ParseVerdict(s string) Verdict {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return VerdictTrue
	case "false":
		return VerdictFalse
	default:
		return VerdictUnverified
	}
}

// VerifiedClaim is the final, immutable result of verifying one claim
type VerifiedClaim struct {
	Claim      string  `json:"claim"`
	Timestamp  string  `json:"timestamp"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"` // [0,1]
	Source     string  `json:"source"`     // URL or descriptive label
	Reasoning  string  `json:"reasoning"`
}
