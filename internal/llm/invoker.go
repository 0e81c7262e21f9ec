// Package llm arbitrates text-generation calls between two model tiers.
// The heavy tier is reserved for claim extraction and manipulation analysis;
// the light tier handles per-claim verification and summaries. The split
// spreads token consumption across independent per-model rate-limit budgets.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/cooldown"
	"github.com/veritaslab/veritas/internal/model"
)

// ErrMaxRetries signals that the light tier stayed rate-limited through
// every backoff attempt
var ErrMaxRetries = errors.New("max retries exceeded")

// Tier selects which model class serves a request
type Tier int

const (
	TierLight Tier = iota
	TierHeavy
)

// Request describes one invocation
type Request struct {
	Tier   Tier
	Prompt string

	// FallbackPrompt is used when a heavy-tier request is redirected to the
	// light tier; callers supply it because light-tier prompts may need
	// truncation to fit smaller context and quota budgets. Empty means
	// reuse Prompt.
	FallbackPrompt string

	// MaxRetries overrides the configured retry budget when positive
	MaxRetries int
}

// Invoker executes requests with rate-limit resilience: backoff retries on
// the light tier, cooldown-and-fallback on the heavy tier.
type Invoker struct {
	gen       Generator
	cfg       model.ModelsConfig
	cooldowns *cooldown.Tracker
	sleep     func(time.Duration) // injectable for tests
	log       *zap.Logger
}

// NewInvoker creates an invoker over the given generator
func NewInvoker(gen Generator, cfg model.ModelsConfig, cooldowns *cooldown.Tracker, log *zap.Logger) *Invoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invoker{
		gen:       gen,
		cfg:       cfg,
		cooldowns: cooldowns,
		sleep:     time.Sleep,
		log:       log,
	}
}

// Invoke executes the request and returns the model's raw text output.
// Non-rate-limit errors propagate immediately; rate limits are absorbed by
// retry, cooldown, and tier fallback until every option is exhausted.
func (inv *Invoker) Invoke(ctx context.Context, req Request) (string, error) {
	retries := req.MaxRetries
	if retries <= 0 {
		retries = inv.cfg.MaxRetries
	}

	if req.Tier != TierHeavy {
		return inv.invokeLight(ctx, req.Prompt, retries)
	}

	// Cooldown state is read before every heavy call; while active, the
	// heavy tier is assumed unavailable and the request is redirected.
	if inv.cooldowns.Active(cooldown.KeyHeavyModel) {
		inv.log.Debug("heavy tier on cooldown, redirecting to light tier",
			zap.Duration("remaining", inv.cooldowns.Remaining(cooldown.KeyHeavyModel)))
		return inv.invokeLight(ctx, fallbackPrompt(req), retries)
	}

	out, err := inv.gen.Generate(ctx, inv.cfg.Heavy, req.Prompt)
	if err == nil {
		return out, nil
	}
	if !IsRateLimited(err) {
		return "", fmt.Errorf("heavy tier: %w", err)
	}

	// Heavy-tier retries are expensive: no backoff, just record the
	// cooldown window and fall through to the light tier.
	window, ok := ParseRetryAfter(err.Error())
	if !ok {
		window = inv.cfg.DefaultCooldown
	}
	inv.cooldowns.Set(cooldown.KeyHeavyModel, window)
	inv.log.Warn("heavy tier rate limited, falling back to light tier",
		zap.String("model", inv.cfg.Heavy),
		zap.Duration("cooldown", window))

	return inv.invokeLight(ctx, fallbackPrompt(req), retries)
}

// invokeLight retries rate-limited calls with exponential backoff
func (inv *Invoker) invokeLight(ctx context.Context, prompt string, maxRetries int) (string, error) {
	delay := inv.cfg.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, err := inv.gen.Generate(ctx, inv.cfg.Light, prompt)
		if err == nil {
			return out, nil
		}
		if !IsRateLimited(err) {
			return "", fmt.Errorf("light tier: %w", err)
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		inv.log.Debug("light tier rate limited, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))
		inv.sleep(delay)
		delay *= 2
	}

	return "", fmt.Errorf("light tier rate limited after %d attempts (%v): %w", maxRetries+1, lastErr, ErrMaxRetries)
}

func fallbackPrompt(req Request) string {
	if req.FallbackPrompt != "" {
		return req.FallbackPrompt
	}
	return req.Prompt
}
