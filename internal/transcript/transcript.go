// Package transcript acquires spoken/written text for a video reference by
// trying strategies in fixed priority order: captions API, page scrape,
// audio transcription, metadata fallback. The chain short-circuits on the
// first success and aggregates every failure for diagnostics.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/model"
)

// Ref identifies the video being analyzed
type Ref struct {
	URL     string
	VideoID string
}

// Strategy is one acquisition approach. Fetch returns a non-empty segment
// list or an error; each strategy runs under its own timeout.
type Strategy struct {
	Name    string
	Timeout time.Duration
	Fetch   func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error)
}

// UnavailableError is the terminal failure of the whole chain. It is
// distinct from generic internal errors because the caller can recover by
// switching to manual-text input.
type UnavailableError struct {
	Attempts []string
}

func (e *UnavailableError) Error() string {
	return "transcript unavailable: " + strings.Join(e.Attempts, "; ")
}

// IsUnavailable reports whether err is a terminal chain failure
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// Chain tries strategies in order until one yields segments
type Chain struct {
	strategies []Strategy
	log        *zap.Logger
}

// NewChain creates a chain over the given ordered strategies
func NewChain(log *zap.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{strategies: strategies, log: log}
}

// Acquire runs the chain. A strategy failure or timeout advances to the
// next strategy; only full exhaustion returns an UnavailableError.
func (c *Chain) Acquire(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
	var attempts []string

	for _, strat := range c.strategies {
		segments, err := c.runStrategy(ctx, strat, ref)
		if err == nil && len(segments) > 0 {
			c.log.Info("transcript acquired",
				zap.String("strategy", strat.Name),
				zap.Int("segments", len(segments)))
			return segments, nil
		}
		if err == nil {
			err = fmt.Errorf("no segments returned")
		}
		c.log.Warn("transcript strategy failed",
			zap.String("strategy", strat.Name),
			zap.Error(err))
		attempts = append(attempts, fmt.Sprintf("%s: %v", strat.Name, err))
	}

	return nil, &UnavailableError{Attempts: attempts}
}

func (c *Chain) runStrategy(ctx context.Context, strat Strategy, ref Ref) ([]model.TranscriptSegment, error) {
	if strat.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, strat.Timeout)
		defer cancel()
	}
	return strat.Fetch(ctx, ref)
}
