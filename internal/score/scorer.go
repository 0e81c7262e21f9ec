// Package score aggregates per-claim verdicts into report-level numbers.
package score

import (
	"math"

	"github.com/veritaslab/veritas/internal/model"
)

// Counts tallies verdicts for a report's meta block
func Counts(claims []model.VerifiedClaim) model.Meta {
	meta := model.Meta{TotalClaims: len(claims)}
	for _, claim := range claims {
		switch claim.Verdict {
		case model.VerdictTrue:
			meta.TrueCount++
		case model.VerdictFalse:
			meta.FalseCount++
		default:
			meta.UnverifiedCount++
		}
	}
	return meta
}

// TruthScore computes the report's headline number: the share of True
// verdicts among definitive ones, rounded to a percentage. Unverified
// claims carry no signal either way, so a report with claims but no
// definitive verdicts sits at the neutral 50. No claims at all scores 0.
func TruthScore(claims []model.VerifiedClaim) int {
	if len(claims) == 0 {
		return 0
	}

	meta := Counts(claims)
	definitive := meta.TrueCount + meta.FalseCount
	if definitive == 0 {
		return 50
	}
	return int(math.Round(100 * float64(meta.TrueCount) / float64(definitive)))
}
