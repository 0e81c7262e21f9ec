// Package extract turns raw transcript text into discrete, checkable
// factual claims using the heavy model tier.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/jsonx"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/model"
)

// ErrMalformed signals that the model produced no parseable claim output
// on either extraction pass
var ErrMalformed = errors.New("extract: model output unparseable")

// transcript text beyond these lengths is cut before prompting; the
// fallback cap fits light-tier context budgets
const (
	promptTranscriptCap   = 24000
	fallbackTranscriptCap = 8000
)

// Invoker is the slice of llm.Invoker the extractor needs
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Result is one extraction pass outcome
type Result struct {
	Topic  string
	Claims []model.ExtractedClaim
}

// Extractor runs the two-pass claim extraction
type Extractor struct {
	inv Invoker
	cfg model.ExtractionConfig
	log *zap.Logger
}

// NewExtractor creates an extractor over the given invoker
func NewExtractor(inv Invoker, cfg model.ExtractionConfig, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{inv: inv, cfg: cfg, log: log}
}

// Extract pulls checkable claims out of the transcript. A strict pass runs
// first; when it yields nothing, or too few claims from a substantial
// transcript, a relaxed pass retries with looser instructions. A parsed
// response with zero claims is a valid outcome, not a failure: some content
// genuinely contains nothing checkable.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Result, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, fmt.Errorf("extract: empty transcript")
	}

	strict, strictErr := e.runPass(ctx, strictPrompt, transcript)
	if strictErr == nil && len(strict.Claims) >= e.cfg.MinClaims {
		return strict, nil
	}

	substantial := len(transcript) >= e.cfg.SubstantialChars
	needRelaxed := strictErr != nil ||
		len(strict.Claims) == 0 ||
		(substantial && len(strict.Claims) < e.cfg.MinClaims)
	if !needRelaxed {
		return strict, nil
	}

	e.log.Info("strict extraction pass insufficient, running relaxed pass",
		zap.Int("strict_claims", claimCount(strict)),
		zap.Bool("substantial", substantial))

	relaxed, relaxedErr := e.runPass(ctx, relaxedPrompt, transcript)
	if relaxedErr == nil && claimCount(relaxed) > claimCount(strict) {
		return relaxed, nil
	}
	if strictErr == nil {
		return strict, nil
	}
	if relaxedErr == nil {
		return relaxed, nil
	}
	if errors.Is(strictErr, ErrMalformed) {
		return nil, strictErr
	}
	return nil, fmt.Errorf("extract: %w", strictErr)
}

func claimCount(r *Result) int {
	if r == nil {
		return 0
	}
	return len(r.Claims)
}

// runPass executes one extraction prompt and parses the response
func (e *Extractor) runPass(ctx context.Context, buildPrompt func(string, int) string, transcript string) (*Result, error) {
	req := llm.Request{
		Tier:           llm.TierHeavy,
		Prompt:         buildPrompt(truncate(transcript, promptTranscriptCap), e.cfg.MaxClaims),
		FallbackPrompt: buildPrompt(truncate(transcript, fallbackTranscriptCap), e.cfg.MaxClaims),
	}

	raw, err := e.inv.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	if result := e.parseResponse(raw); result != nil {
		return result, nil
	}
	return nil, ErrMalformed
}

// parseResponse decodes the model's JSON, falling back to string salvage
// when the structure is beyond repair
func (e *Extractor) parseResponse(raw string) *Result {
	if obj := jsonx.Extract(raw); obj != nil {
		result := &Result{Topic: jsonx.AsString(obj["topic"])}
		for _, item := range jsonx.AsSlice(obj["claims"]) {
			claimObj := jsonx.AsObject(item)
			if claimObj == nil {
				continue
			}
			result.Claims = append(result.Claims, model.ExtractedClaim{
				Claim:     jsonx.AsString(claimObj["claim"]),
				Timestamp: jsonx.AsString(claimObj["timestamp"]),
				Query:     jsonx.AsString(claimObj["query"]),
			})
		}
		if result.Topic != "" || len(result.Claims) > 0 {
			return e.postProcess(result)
		}
	}

	salvaged := jsonx.SalvageStrings(raw, "claim")
	if len(salvaged) == 0 {
		return nil
	}
	e.log.Warn("claim JSON unrecoverable, salvaged claim strings",
		zap.Int("count", len(salvaged)))

	result := &Result{}
	for _, claim := range salvaged {
		result.Claims = append(result.Claims, model.ExtractedClaim{Claim: claim})
	}
	return e.postProcess(result)
}

// postProcess drops fragments, backfills missing fields, and caps the
// claim count
func (e *Extractor) postProcess(result *Result) *Result {
	if result.Topic == "" {
		result.Topic = "Unknown Topic"
	}

	var kept []model.ExtractedClaim
	for _, claim := range result.Claims {
		claim.Claim = strings.TrimSpace(claim.Claim)
		if len(claim.Claim) <= 5 {
			continue
		}
		if strings.TrimSpace(claim.Timestamp) == "" {
			claim.Timestamp = "Unknown"
		}
		claim.Query = strings.TrimSpace(claim.Query)
		if claim.Query == "" {
			claim.Query = claim.Claim
			if result.Topic != "Unknown Topic" {
				claim.Query += " " + result.Topic
			}
		}
		claim.Query = truncate(claim.Query, e.cfg.MaxQueryChars)
		kept = append(kept, claim)
		if len(kept) == e.cfg.MaxClaims {
			break
		}
	}

	result.Claims = kept
	return result
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
