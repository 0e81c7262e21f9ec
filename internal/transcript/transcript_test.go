package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/veritaslab/veritas/internal/model"
)

func segs(texts ...string) []model.TranscriptSegment {
	var out []model.TranscriptSegment
	for i, text := range texts {
		out = append(out, model.TranscriptSegment{Text: text, Start: float64(i), Duration: 1})
	}
	return out
}

func TestChainFirstSuccessShortCircuits(t *testing.T) {
	var secondCalled bool

	chain := NewChain(nil,
		Strategy{Name: "first", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return segs("hello world"), nil
		}},
		Strategy{Name: "second", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			secondCalled = true
			return segs("unreachable"), nil
		}},
	)

	got, err := chain.Acquire(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello world" {
		t.Errorf("unexpected segments: %+v", got)
	}
	if secondCalled {
		t.Error("second strategy ran after first succeeded")
	}
}

func TestChainAdvancesOnFailure(t *testing.T) {
	chain := NewChain(nil,
		Strategy{Name: "captions", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return nil, errors.New("service down")
		}},
		Strategy{Name: "scrape", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return nil, nil // success with no segments counts as failure
		}},
		Strategy{Name: "metadata", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return segs("from metadata"), nil
		}},
	)

	got, err := chain.Acquire(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got[0].Text != "from metadata" {
		t.Errorf("got %q, want fallback result", got[0].Text)
	}
}

func TestChainExhaustionAggregatesAttempts(t *testing.T) {
	chain := NewChain(nil,
		Strategy{Name: "captions", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return nil, errors.New("status 503")
		}},
		Strategy{Name: "audio", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return nil, errors.New("yt-dlp not found")
		}},
	)

	_, err := chain.Acquire(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if !IsUnavailable(err) {
		t.Fatalf("expected UnavailableError, got %T", err)
	}

	var ue *UnavailableError
	errors.As(err, &ue)
	if len(ue.Attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(ue.Attempts))
	}
	if !strings.Contains(ue.Attempts[0], "captions") || !strings.Contains(ue.Attempts[0], "503") {
		t.Errorf("first attempt missing detail: %q", ue.Attempts[0])
	}
	if !strings.Contains(err.Error(), "yt-dlp not found") {
		t.Errorf("error string missing second failure: %q", err.Error())
	}
}

func TestChainStrategyTimeoutAdvances(t *testing.T) {
	chain := NewChain(nil,
		Strategy{
			Name:    "slow",
			Timeout: 10 * time.Millisecond,
			Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
				<-ctx.Done()
				return nil, fmt.Errorf("fetch: %w", ctx.Err())
			},
		},
		Strategy{Name: "fast", Fetch: func(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
			return segs("made it"), nil
		}},
	)

	got, err := chain.Acquire(context.Background(), Ref{VideoID: "dQw4w9WgXcQ"})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got[0].Text != "made it" {
		t.Errorf("got %q, want result from second strategy", got[0].Text)
	}
}

func TestIsUnavailableRejectsOtherErrors(t *testing.T) {
	if IsUnavailable(errors.New("plain")) {
		t.Error("plain error classified as unavailable")
	}
	if IsUnavailable(nil) {
		t.Error("nil classified as unavailable")
	}
	wrapped := fmt.Errorf("pipeline: %w", &UnavailableError{Attempts: []string{"a: b"}})
	if !IsUnavailable(wrapped) {
		t.Error("wrapped UnavailableError not detected")
	}
}
