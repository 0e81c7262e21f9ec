// Package verify renders a verdict for each extracted claim, grounding the
// model in web search evidence when a search provider is available.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/cooldown"
	"github.com/veritaslab/veritas/internal/jsonx"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/model"
	"github.com/veritaslab/veritas/internal/search"
)

// hedgePhrases in the model's reasoning contradict a definitive verdict;
// any match downgrades the verdict to Unverified. Bare stems ("insufficient",
// "not enough") cover every continuation the model might pick.
var hedgePhrases = []string{
	"no evidence",
	"insufficient",
	"cannot verify",
	"cannot be verified",
	"unable to verify",
	"not enough",
	"no information",
	"unclear whether",
}

// modelOnlySource labels verdicts rendered without search evidence
const modelOnlySource = "Model knowledge (no search evidence)"

// Invoker is the slice of llm.Invoker the verifier needs
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Searcher is the slice of search.Client the verifier needs
type Searcher interface {
	Enabled() bool
	Search(ctx context.Context, query string, opts search.Options) (*search.Response, error)
}

// Verifier verifies one claim at a time. Verify never fails: every claim
// gets a verdict, degrading to Unverified when evidence or parsing falls
// short.
type Verifier struct {
	inv            Invoker
	searcher       Searcher
	cooldowns      *cooldown.Tracker
	cfg            model.VerifyConfig
	searchCooldown time.Duration
	log            *zap.Logger
}

// NewVerifier creates a verifier. searcher may be nil when no search
// provider is configured.
func NewVerifier(inv Invoker, searcher Searcher, cooldowns *cooldown.Tracker, cfg model.VerifyConfig, searchCooldown time.Duration, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		inv:            inv,
		searcher:       searcher,
		cooldowns:      cooldowns,
		cfg:            cfg,
		searchCooldown: searchCooldown,
		log:            log,
	}
}

// Verify renders a verdict for the claim. The topic scopes the search
// query when the claim carries none of its own.
func (v *Verifier) Verify(ctx context.Context, claim model.ExtractedClaim, topic string) model.VerifiedClaim {
	out := model.VerifiedClaim{
		Claim:     claim.Claim,
		Timestamp: claim.Timestamp,
		Verdict:   model.VerdictUnverified,
	}

	evidence, searched := v.gatherEvidence(ctx, claim, topic)

	raw, err := v.inv.Invoke(ctx, llm.Request{
		Tier:   llm.TierLight,
		Prompt: verdictPrompt(claim.Claim, evidence, searched),
	})
	if err != nil {
		v.log.Warn("verification call failed",
			zap.String("claim", claim.Claim),
			zap.Error(err))
		out.Reasoning = "Verification unavailable: " + err.Error()
		return out
	}

	v.applyResponse(&out, raw, searched)
	return out
}

// gatherEvidence searches for the claim and formats the top reranked
// results. Returns searched=false when search is disabled, cooling down,
// or failed.
func (v *Verifier) gatherEvidence(ctx context.Context, claim model.ExtractedClaim, topic string) (string, bool) {
	if v.searcher == nil || !v.searcher.Enabled() {
		return "", false
	}
	if v.cooldowns != nil && v.cooldowns.Active(cooldown.KeySearch) {
		v.log.Debug("search on cooldown, verifying from model knowledge",
			zap.Duration("remaining", v.cooldowns.Remaining(cooldown.KeySearch)))
		return "", false
	}

	query := claim.Query
	if query == "" {
		query = claim.Claim
		if topic != "" {
			query += " " + topic
		}
	}

	resp, err := v.searcher.Search(ctx, query, search.Options{Topic: topic})
	if err != nil {
		if search.IsQuotaExceeded(err) && v.cooldowns != nil {
			v.cooldowns.Set(cooldown.KeySearch, v.searchCooldown)
			v.log.Warn("search quota exceeded, cooling down",
				zap.Duration("cooldown", v.searchCooldown))
		} else {
			v.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		}
		return "", false
	}

	ranked := search.Rerank(resp.Results)
	if len(ranked) > v.cfg.TopResults {
		ranked = ranked[:v.cfg.TopResults]
	}
	if len(ranked) == 0 && resp.Answer == "" {
		return "", false
	}

	var sb strings.Builder
	if resp.Answer != "" {
		sb.WriteString("Search synthesis: ")
		sb.WriteString(resp.Answer)
		sb.WriteString("\n\n")
	}
	for i, r := range ranked {
		fmt.Fprintf(&sb, "Source %d: %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	return strings.TrimSpace(sb.String()), true
}

// applyResponse parses the model output into the claim, with best-effort
// fallbacks for every field
func (v *Verifier) applyResponse(out *model.VerifiedClaim, raw string, searched bool) {
	obj := jsonx.Extract(raw)
	if obj == nil {
		out.Reasoning = "Could not parse verification output"
		return
	}

	out.Verdict = model.ParseVerdict(jsonx.AsString(obj["verdict"]))
	out.Reasoning = jsonx.AsString(obj["reasoning"])
	out.Source = jsonx.AsString(obj["source"])
	if conf, ok := jsonx.AsFloat(obj["confidence"]); ok {
		out.Confidence = clamp01(conf)
	}

	if !searched {
		if out.Source == "" {
			out.Source = modelOnlySource
		}
		if out.Confidence > v.cfg.ModelOnlyMaxConfidence {
			out.Confidence = v.cfg.ModelOnlyMaxConfidence
		}
	}

	// A definitive verdict with hedging reasoning is not definitive.
	if out.Verdict != model.VerdictUnverified && containsHedge(out.Reasoning) {
		v.log.Debug("hedged verdict downgraded",
			zap.String("claim", out.Claim),
			zap.String("verdict", string(out.Verdict)))
		out.Verdict = model.VerdictUnverified
	}
}

func containsHedge(reasoning string) bool {
	lower := strings.ToLower(reasoning)
	for _, phrase := range hedgePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func verdictPrompt(claim, evidence string, searched bool) string {
	if searched {
		return fmt.Sprintf(`You are a fact checker. Evaluate this claim against the evidence below.

Claim: %s

Evidence:
%s

Respond with ONLY this JSON, no other text:
{"verdict": "True" | "False" | "Unverified", "confidence": <0.0-1.0>, "source": "<URL of the single most relevant source>", "reasoning": "<one or two sentences>"}

Use "Unverified" when the evidence does not clearly support or refute the claim.`, claim, evidence)
	}

	return fmt.Sprintf(`You are a fact checker. Evaluate this claim using only your general knowledge. No web evidence is available.

Claim: %s

Respond with ONLY this JSON, no other text:
{"verdict": "True" | "False" | "Unverified", "confidence": <0.0-1.0>, "source": "", "reasoning": "<one or two sentences>"}

Only answer "True" or "False" for well-established facts. Use "Unverified" for anything recent, niche, or disputed.`, claim)
}
