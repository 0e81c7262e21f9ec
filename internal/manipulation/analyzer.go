// Package manipulation scores the transcript against a fixed taxonomy of
// eight rhetorical manipulation tactics using the heavy model tier.
package manipulation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/jsonx"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/model"
)

const (
	promptTranscriptCap   = 24000
	fallbackTranscriptCap = 8000
)

// Invoker is the slice of llm.Invoker the analyzer needs
type Invoker interface {
	Invoke(ctx context.Context, req llm.Request) (string, error)
}

// Analyzer runs manipulation analysis. Analyze never fails: when the model
// output cannot be recovered even through a reformat pass, the all-zero
// report is returned.
type Analyzer struct {
	inv Invoker
	log *zap.Logger
}

// NewAnalyzer creates an analyzer over the given invoker
func NewAnalyzer(inv Invoker, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{inv: inv, log: log}
}

// Analyze scores the transcript against the canonical tactic taxonomy
func (a *Analyzer) Analyze(ctx context.Context, transcript string) model.ManipulationReport {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return model.ZeroManipulation("No content to analyze")
	}

	raw, err := a.inv.Invoke(ctx, llm.Request{
		Tier:           llm.TierHeavy,
		Prompt:         analysisPrompt(truncate(transcript, promptTranscriptCap)),
		FallbackPrompt: analysisPrompt(truncate(transcript, fallbackTranscriptCap)),
	})
	if err != nil {
		a.log.Warn("manipulation analysis call failed", zap.Error(err))
		return model.ZeroManipulation("Manipulation analysis unavailable")
	}

	if report, ok := a.parse(raw); ok {
		return report
	}

	// Reformat pass: ask the light tier to re-emit the broken output as
	// clean JSON before giving up.
	a.log.Info("manipulation output unparseable, running reformat pass")
	reformatted, err := a.inv.Invoke(ctx, llm.Request{
		Tier:   llm.TierLight,
		Prompt: reformatPrompt(raw),
	})
	if err == nil {
		if report, ok := a.parse(reformatted); ok {
			return report
		}
	}

	a.log.Warn("manipulation analysis unrecoverable, returning zero report")
	return model.ZeroManipulation("Manipulation analysis could not be completed")
}

// parse decodes the model output and reconciles it onto the canonical
// taxonomy
func (a *Analyzer) parse(raw string) (model.ManipulationReport, bool) {
	obj := jsonx.Extract(raw)
	if obj == nil {
		return model.ManipulationReport{}, false
	}

	items := jsonx.AsSlice(obj["tactics"])
	if len(items) == 0 {
		return model.ManipulationReport{}, false
	}

	var reported []model.ManipulationTactic
	for _, item := range items {
		tacticObj := jsonx.AsObject(item)
		if tacticObj == nil {
			continue
		}
		score, _ := jsonx.AsInt(tacticObj["score"])
		reported = append(reported, model.ManipulationTactic{
			Tactic:      jsonx.AsString(tacticObj["tactic"]),
			Score:       clampScore(score),
			Example:     jsonx.AsString(tacticObj["example"]),
			Explanation: jsonx.AsString(tacticObj["explanation"]),
		})
	}
	if len(reported) == 0 {
		return model.ManipulationReport{}, false
	}

	tactics := reconcile(reported)

	report := model.ManipulationReport{
		Tactics: tactics,
		Summary: jsonx.AsString(obj["summary"]),
	}
	if overall, ok := jsonx.AsInt(obj["manipulationScore"]); ok {
		report.ManipulationScore = clampScore(overall)
	} else {
		report.ManipulationScore = meanScore(tactics)
	}
	return report, true
}

// reconcile maps whatever tactic names the model produced onto the
// canonical eight. An exact case-insensitive name match wins; otherwise
// the longest shared leading-word prefix decides, and a tie between two
// canonical names is ambiguous and dropped. Unmatched model tactics are
// dropped, and canonical tactics the model skipped score zero.
func reconcile(reported []model.ManipulationTactic) []model.ManipulationTactic {
	tactics := make([]model.ManipulationTactic, len(model.CanonicalTactics))
	for i, name := range model.CanonicalTactics {
		tactics[i] = model.ManipulationTactic{Tactic: name}
	}

	for _, rep := range reported {
		idx := matchTactic(rep.Tactic)
		if idx < 0 {
			continue
		}
		if rep.Score >= tactics[idx].Score {
			tactics[idx] = model.ManipulationTactic{
				Tactic:      model.CanonicalTactics[idx],
				Score:       rep.Score,
				Example:     rep.Example,
				Explanation: rep.Explanation,
			}
		}
	}
	return tactics
}

func matchTactic(name string) int {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return -1
	}

	for i, canonical := range model.CanonicalTactics {
		if name == strings.ToLower(canonical) {
			return i
		}
	}

	// Both "Appeal to ..." tactics share their first two words, so a fixed
	// first-word rule would misattribute between them. The longest shared
	// prefix disambiguates; an exact tie cannot be attributed safely.
	words := tacticWords(name)
	best, bestShared := -1, 0
	ambiguous := false
	for i, canonical := range model.CanonicalTactics {
		shared := sharedPrefixWords(words, tacticWords(strings.ToLower(canonical)))
		if shared > bestShared {
			best, bestShared = i, shared
			ambiguous = false
		} else if shared == bestShared && shared > 0 {
			ambiguous = true
		}
	}
	if best < 0 || ambiguous {
		return -1
	}
	return best
}

// tacticWords treats hyphens as word breaks so "cherry picking" and
// "Cherry-Picking" agree on their words
func tacticWords(name string) []string {
	return strings.Fields(strings.ReplaceAll(name, "-", " "))
}

func sharedPrefixWords(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func meanScore(tactics []model.ManipulationTactic) int {
	if len(tactics) == 0 {
		return 0
	}
	sum := 0
	for _, t := range tactics {
		sum += t.Score
	}
	return sum / len(tactics)
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

func analysisPrompt(transcript string) string {
	var defs strings.Builder
	for i, line := range []string{
		"Appeal to Emotion: using fear, anger, or sympathy instead of evidence",
		"Appeal to Authority: citing status or credentials instead of evidence",
		"Cherry-Picking: presenting only data that supports one side",
		"False Dichotomy: framing a complex issue as having only two options",
		"Loaded Language: emotionally charged wording that prejudges the issue",
		"Bandwagon: arguing something is true because many believe it",
		"Strawman: misrepresenting an opposing position to attack it",
		"Repetition: repeating a claim until it feels true",
	} {
		fmt.Fprintf(&defs, "%d. %s\n", i+1, line)
	}

	return fmt.Sprintf(`You are a media literacy analyst. Score this video transcript for each of these manipulation tactics:

%s
For each tactic give a score from 0 (absent) to 100 (pervasive), a short quote from the transcript as an example (empty string if absent), and a one-sentence explanation.

Respond with ONLY this JSON, no other text:
{"manipulationScore": <0-100 overall>, "summary": "<one or two sentences on the overall rhetorical style>", "tactics": [{"tactic": "<tactic name>", "score": <0-100>, "example": "<quote or empty>", "explanation": "<one sentence>"}]}

Transcript:
%s`, defs.String(), transcript)
}

func reformatPrompt(broken string) string {
	return fmt.Sprintf(`The following text contains a manipulation analysis but is not valid JSON. Re-emit it as ONLY valid JSON in exactly this shape, preserving the scores and text:
{"manipulationScore": <0-100>, "summary": "<text>", "tactics": [{"tactic": "<name>", "score": <0-100>, "example": "<text>", "explanation": "<text>"}]}

Text:
%s`, truncate(broken, fallbackTranscriptCap))
}
