// Package pipeline orchestrates a full analysis: transcript acquisition,
// claim extraction, verification, manipulation analysis, and scoring.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/cache"
	"github.com/veritaslab/veritas/internal/extract"
	"github.com/veritaslab/veritas/internal/jsonx"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/score"
	"github.com/veritaslab/veritas/internal/transcript"
)

var (
	// ErrNoInput means the request carried neither a URL nor manual text
	ErrNoInput = errors.New("pipeline: no video URL or text provided")
	// ErrInvalidURL means the URL is not a recognizable video link
	ErrInvalidURL = errors.New("pipeline: could not extract a video ID from URL")
	// ErrNoCredentials means no model API key is configured
	ErrNoCredentials = errors.New("pipeline: no model API key configured")
	// ErrEmptyTranscript means manual text was provided but is empty
	ErrEmptyTranscript = errors.New("pipeline: transcript text is empty")
)

// Input is one analysis request. Text, when set, bypasses transcript
// acquisition entirely.
type Input struct {
	URL  string
	Text string
}

// TranscriptAcquirer yields transcript segments for a video reference
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, ref transcript.Ref) ([]model.TranscriptSegment, error)
}

// ClaimExtractor pulls checkable claims out of transcript text
type ClaimExtractor interface {
	Extract(ctx context.Context, text string) (*extract.Result, error)
}

// ClaimVerifier renders verdicts for a batch of claims about one topic
type ClaimVerifier interface {
	VerifyAll(ctx context.Context, claims []model.ExtractedClaim, topic string) []model.VerifiedClaim
}

// ManipulationAnalyzer scores rhetorical manipulation in transcript text
type ManipulationAnalyzer interface {
	Analyze(ctx context.Context, text string) model.ManipulationReport
}

// Invoker is the slice of llm.Invoker the pipeline needs for summaries
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Pipeline wires the stages together
type Pipeline struct {
	cfg       *model.Config
	acquirer  TranscriptAcquirer
	extractor ClaimExtractor
	verifier  ClaimVerifier
	analyzer  ManipulationAnalyzer
	inv       Invoker
	reports   *cache.ReportCache
	log       *zap.Logger
}

// New creates a pipeline from its stages
func New(cfg *model.Config, acquirer TranscriptAcquirer, extractor ClaimExtractor, verifier ClaimVerifier, analyzer ManipulationAnalyzer, inv Invoker, reports *cache.ReportCache, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		acquirer:  acquirer,
		extractor: extractor,
		verifier:  verifier,
		analyzer:  analyzer,
		inv:       inv,
		reports:   reports,
		log:       log,
	}
}

// Analyze runs the full pipeline for one request. Hard failures (bad
// input, missing credentials) return errors; content-level failures
// (transcript unavailable, unparseable model output) return degraded
// reports so the caller always has something to show.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (*model.AnalysisReport, error) {
	in.URL = strings.TrimSpace(in.URL)
	in.Text = strings.TrimSpace(in.Text)

	if in.URL == "" && in.Text == "" {
		return nil, ErrNoInput
	}
	if p.cfg.Models.APIKey == "" {
		return nil, ErrNoCredentials
	}

	var (
		videoID        string
		transcriptText string
	)

	if in.Text != "" {
		transcriptText = in.Text
	} else {
		id, ok := transcript.ExtractVideoID(in.URL)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, in.URL)
		}
		videoID = id

		if cached, found := p.reports.Get(videoID); found {
			p.log.Info("report served from cache", zap.String("video_id", videoID))
			return cached, nil
		}

		segments, err := p.acquirer.Acquire(ctx, transcript.Ref{URL: in.URL, VideoID: videoID})
		if err != nil {
			if transcript.IsUnavailable(err) {
				p.log.Warn("transcript unavailable", zap.String("video_id", videoID), zap.Error(err))
				return unavailableReport(in.URL, err), nil
			}
			return nil, fmt.Errorf("acquire transcript: %w", err)
		}
		transcriptText = model.JoinSegments(segments)
	}

	if transcriptText == "" {
		return nil, ErrEmptyTranscript
	}

	extracted, err := p.extractor.Extract(ctx, transcriptText)
	if err != nil {
		if errors.Is(err, extract.ErrMalformed) {
			p.log.Warn("claim extraction unparseable", zap.Error(err))
			return failedReport(in.URL, "Claim extraction produced no usable output"), nil
		}
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	if len(extracted.Claims) == 0 {
		p.log.Info("no checkable claims extracted", zap.String("topic", extracted.Topic))
		report := noClaimsReport(in.URL, extracted.Topic, p.analyzer.Analyze(ctx, transcriptText))
		p.reports.Set(videoID, report)
		return report, nil
	}

	verified := p.verifier.VerifyAll(ctx, extracted.Claims, extracted.Topic)

	// Manipulation analysis and the summary are independent of each other;
	// run them concurrently and wait for both.
	var (
		wg           sync.WaitGroup
		manipulation model.ManipulationReport
		summary      string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		manipulation = p.analyzer.Analyze(ctx, transcriptText)
	}()
	go func() {
		defer wg.Done()
		summary = p.summarize(ctx, extracted.Topic, verified)
	}()
	wg.Wait()

	report := &model.AnalysisReport{
		URL:          in.URL,
		Topic:        extracted.Topic,
		Summary:      summary,
		TruthScore:   score.TruthScore(verified),
		Claims:       verified,
		Manipulation: manipulation,
		Meta:         score.Counts(verified),
	}

	p.reports.Set(videoID, report)
	p.log.Info("analysis complete",
		zap.String("topic", report.Topic),
		zap.Int("truth_score", report.TruthScore),
		zap.Int("claims", report.Meta.TotalClaims))
	return report, nil
}

// summarize asks the light tier for a two-sentence summary built from the
// topic, verdict counts, and top claims, falling back to a deterministic
// template
func (p *Pipeline) summarize(ctx context.Context, topic string, verified []model.VerifiedClaim) string {
	counts := score.Counts(verified)

	var claimLines strings.Builder
	for i, claim := range verified {
		if i == 3 {
			break
		}
		fmt.Fprintf(&claimLines, "- [%s] %s\n", claim.Verdict, claim.Claim)
	}

	raw, err := p.inv.Invoke(ctx, llm.Request{
		Tier: llm.TierLight,
		Prompt: fmt.Sprintf(`Write a two-sentence summary of a fact-check of a video about %s. Of %d claims checked, %d were true, %d were false, and %d could not be verified.

Top claims:
%s
Respond with ONLY this JSON, no other text:
{"summary": "<two sentences>"}`, topic, counts.TotalClaims, counts.TrueCount, counts.FalseCount, counts.UnverifiedCount, claimLines.String()),
	})
	if err == nil {
		if obj := jsonx.Extract(raw); obj != nil {
			if s := strings.TrimSpace(jsonx.AsString(obj["summary"])); s != "" {
				return s
			}
		}
		// model answered in prose; take it if it looks like one
		raw = strings.TrimSpace(raw)
		if raw != "" && !strings.ContainsAny(raw, "{}") {
			return raw
		}
	} else {
		p.log.Warn("summary call failed", zap.Error(err))
	}

	return fmt.Sprintf("This video discusses %s. An automatic summary could not be generated.", topic)
}

// noClaimsReport is the successful result for content with nothing
// checkable in it. The topic is preserved so the summary stays meaningful.
func noClaimsReport(url, topic string, manipulation model.ManipulationReport) *model.AnalysisReport {
	return &model.AnalysisReport{
		URL:          url,
		Topic:        topic,
		Summary:      fmt.Sprintf("No verifiable factual claims were found in this video about %s.", topic),
		TruthScore:   0,
		Claims:       []model.VerifiedClaim{},
		Manipulation: manipulation,
		Meta:         model.Meta{},
	}
}

// unavailableReport is the degraded result for videos with no obtainable
// transcript. The caller can retry with manual text input.
func unavailableReport(url string, err error) *model.AnalysisReport {
	return &model.AnalysisReport{
		URL:          url,
		Topic:        "Transcript Unavailable",
		Summary:      "No transcript could be obtained for this video. Paste the transcript text to analyze it manually.",
		TruthScore:   0,
		Claims:       []model.VerifiedClaim{},
		Manipulation: model.ZeroManipulation("No content to analyze"),
		Meta:         model.Meta{},
		Details:      err.Error(),
	}
}

// failedReport is the degraded result when model output is beyond repair
func failedReport(url, details string) *model.AnalysisReport {
	return &model.AnalysisReport{
		URL:          url,
		Topic:        "Analysis Failed",
		Summary:      "The analysis could not be completed. Try again shortly.",
		TruthScore:   0,
		Claims:       []model.VerifiedClaim{},
		Manipulation: model.ZeroManipulation("Analysis incomplete"),
		Meta:         model.Meta{},
		Details:      details,
	}
}
