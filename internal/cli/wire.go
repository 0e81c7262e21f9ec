package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/cache"
	"github.com/veritaslab/veritas/internal/cooldown"
	"github.com/veritaslab/veritas/internal/extract"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/manipulation"
	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/pipeline"
	"github.com/veritaslab/veritas/internal/search"
	"github.com/veritaslab/veritas/internal/transcript"
	"github.com/veritaslab/veritas/internal/util"
	"github.com/veritaslab/veritas/internal/verify"
)

// buildPipeline assembles the full analysis pipeline from config
func buildPipeline(cfg *model.Config, log *zap.Logger) (*pipeline.Pipeline, error) {
	groq, err := llm.NewGroqClient(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	cooldowns := cooldown.NewTracker()
	invoker := llm.NewInvoker(groq, cfg.Models, cooldowns, log)

	searcher := search.NewClient(cfg.Search)
	if !searcher.Enabled() {
		log.Warn("no search API key, verification will use model knowledge only")
	}

	extractor := extract.NewExtractor(invoker, cfg.Extraction, log)
	verifier := verify.NewVerifier(invoker, searcher, cooldowns, cfg.Verify, cfg.Search.DefaultCooldown, log)
	analyzer := manipulation.NewAnalyzer(invoker, log)

	chain := buildTranscriptChain(cfg, groq, cooldowns, log)
	reports := cache.NewReportCache(cfg.Cache)

	return pipeline.New(cfg, chain, extractor, verifier, analyzer, invoker, reports, log), nil
}

// buildTranscriptChain wires the acquisition strategies in priority order
func buildTranscriptChain(cfg *model.Config, speech llm.SpeechTranscriber, cooldowns *cooldown.Tracker, log *zap.Logger) *transcript.Chain {
	return transcript.NewChain(log, transcriptStrategies(cfg, speech, cooldowns, log)...)
}

// transcriptStrategies lists the acquisition strategies in priority order.
// Strategies whose prerequisites are missing are left out, and every
// strategy runs under its own finite timeout.
func transcriptStrategies(cfg *model.Config, speech llm.SpeechTranscriber, cooldowns *cooldown.Tracker, log *zap.Logger) []transcript.Strategy {
	tc := cfg.Transcript
	var strategies []transcript.Strategy

	if tc.CaptionsBaseURL != "" {
		captions := transcript.NewCaptionClient(tc.CaptionsBaseURL, tc.UserAgent, tc.StrategyTimeout)
		strategies = append(strategies, transcript.Strategy{
			Name:    "captions",
			Timeout: tc.StrategyTimeout,
			Fetch:   captions.Fetch,
		})
	}

	var robots *util.RobotsChecker
	if tc.RespectRobots {
		robots = util.NewRobotsChecker(tc.UserAgent, tc.StrategyTimeout)
	}
	scraper := transcript.NewScraper(tc, robots, log)
	strategies = append(strategies, transcript.Strategy{
		Name:    "scrape",
		Timeout: tc.StrategyTimeout,
		Fetch:   scraper.Fetch,
	})

	if cfg.Models.APIKey != "" {
		audio := transcript.NewAudioTranscriber(tc, speech, cooldowns, log)
		strategies = append(strategies, transcript.Strategy{
			Name:    "audio",
			Timeout: tc.AudioTimeout,
			Fetch:   audio.Fetch,
		})
	}

	metadata := transcript.NewMetadataFetcher(tc)
	strategies = append(strategies, transcript.Strategy{
		Name:    "metadata",
		Timeout: tc.StrategyTimeout,
		Fetch:   metadata.Fetch,
	})

	return strategies
}
