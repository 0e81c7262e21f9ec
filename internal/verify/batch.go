package verify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veritaslab/veritas/internal/model"
)

// VerifyAll verifies every claim and returns verdicts in the same order as
// the input. With concurrency 1 (the default, tuned for free-tier rate
// limits) claims run sequentially, paced by a rate limiter. Higher
// concurrency runs fixed-size batches with a delay between batches.
func (v *Verifier) VerifyAll(ctx context.Context, claims []model.ExtractedClaim, topic string) []model.VerifiedClaim {
	if len(claims) == 0 {
		return nil
	}

	results := make([]model.VerifiedClaim, len(claims))
	concurrency := v.cfg.Concurrency
	if concurrency <= 1 {
		v.verifySequential(ctx, claims, topic, results)
		return results
	}
	v.verifyBatched(ctx, claims, topic, results, concurrency)
	return results
}

func (v *Verifier) verifySequential(ctx context.Context, claims []model.ExtractedClaim, topic string, results []model.VerifiedClaim) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if v.cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(v.cfg.Delay), 1)
	}

	for i, claim := range claims {
		if err := limiter.Wait(ctx); err != nil {
			v.fillCancelled(claims, results, i, err)
			return
		}
		results[i] = v.Verify(ctx, claim, topic)
		v.log.Debug("claim verified",
			zap.Int("index", i),
			zap.String("verdict", string(results[i].Verdict)))
	}
}

func (v *Verifier) verifyBatched(ctx context.Context, claims []model.ExtractedClaim, topic string, results []model.VerifiedClaim, concurrency int) {
	for start := 0; start < len(claims); start += concurrency {
		if ctx.Err() != nil {
			v.fillCancelled(claims, results, start, ctx.Err())
			return
		}

		end := start + concurrency
		if end > len(claims) {
			end = len(claims)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = v.Verify(ctx, claims[idx], topic)
			}(i)
		}
		wg.Wait()

		if end < len(claims) && v.cfg.Delay > 0 {
			select {
			case <-time.After(v.cfg.Delay):
			case <-ctx.Done():
			}
		}
	}
}

// fillCancelled marks every claim from index on as unverified after a
// context cancellation
func (v *Verifier) fillCancelled(claims []model.ExtractedClaim, results []model.VerifiedClaim, from int, err error) {
	v.log.Warn("verification cancelled", zap.Int("remaining", len(claims)-from), zap.Error(err))
	for i := from; i < len(claims); i++ {
		results[i] = model.VerifiedClaim{
			Claim:     claims[i].Claim,
			Timestamp: claims[i].Timestamp,
			Verdict:   model.VerdictUnverified,
			Reasoning: "Verification cancelled",
		}
	}
}
