package transcript

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veritaslab/veritas/internal/cooldown"
	"github.com/veritaslab/veritas/internal/llm"
	"github.com/veritaslab/veritas/internal/model"
)

// audioFormatLadder is tried in order. Lower bitrates keep the download
// under the speech API's upload ceiling for long videos.
var audioFormatLadder = []string{
	"bestaudio[abr<=64]/bestaudio",
	"bestaudio[abr<=32]/worstaudio",
	"worstaudio",
}

// AudioTranscriber downloads a video's audio with yt-dlp and transcribes it
// through the speech model. This is the most expensive strategy and runs
// only when caption-based strategies have failed.
type AudioTranscriber struct {
	cfg         model.TranscriptConfig
	transcriber llm.SpeechTranscriber
	cooldowns   *cooldown.Tracker
	log         *zap.Logger

	// overridable for tests
	runCommand func(ctx context.Context, name string, args ...string) error
}

// NewAudioTranscriber creates the audio strategy backed by the given
// speech transcriber
func NewAudioTranscriber(cfg model.TranscriptConfig, transcriber llm.SpeechTranscriber, cooldowns *cooldown.Tracker, log *zap.Logger) *AudioTranscriber {
	if log == nil {
		log = zap.NewNop()
	}
	return &AudioTranscriber{
		cfg:         cfg,
		transcriber: transcriber,
		cooldowns:   cooldowns,
		log:         log,
		runCommand: func(ctx context.Context, name string, args ...string) error {
			cmd := exec.CommandContext(ctx, name, args...)
			cmd.Stdout = nil
			cmd.Stderr = nil
			return cmd.Run()
		},
	}
}

// Fetch downloads the audio and returns the transcription as a single
// zero-timestamp segment
func (a *AudioTranscriber) Fetch(ctx context.Context, ref Ref) ([]model.TranscriptSegment, error) {
	if a.transcriber == nil {
		return nil, fmt.Errorf("no speech transcriber configured")
	}
	if a.cooldowns != nil && a.cooldowns.Active(cooldown.KeySpeech) {
		return nil, fmt.Errorf("speech API cooling down for %s", a.cooldowns.Remaining(cooldown.KeySpeech).Round(time.Second))
	}

	audioPath, err := a.download(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(audioPath) }()

	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("stat audio file: %w", err)
	}
	if info.Size() > a.cfg.AudioMaxBytes {
		return nil, fmt.Errorf("audio file is %d bytes, exceeds %d byte limit", info.Size(), a.cfg.AudioMaxBytes)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("audio file is empty")
	}

	text, err := a.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if llm.IsRateLimited(err) && a.cooldowns != nil {
			a.cooldowns.Set(cooldown.KeySpeech, a.cfg.SpeechCooldown)
			a.log.Warn("speech API rate limited",
				zap.Duration("cooldown", a.cfg.SpeechCooldown))
		}
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	if text == "" {
		return nil, fmt.Errorf("speech model returned empty transcription")
	}

	return []model.TranscriptSegment{{Text: text, Start: 0, Duration: 0}}, nil
}

// download tries the format ladder top to bottom and returns the path of
// the first successful download
func (a *AudioTranscriber) download(ctx context.Context, ref Ref) (string, error) {
	tempDir := a.cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	watchURL := "https://www.youtube.com/watch?v=" + ref.VideoID

	var lastErr error
	for _, format := range audioFormatLadder {
		outPath := filepath.Join(tempDir, fmt.Sprintf("%s-%s.m4a", ref.VideoID, uuid.NewString()))

		err := a.runCommand(ctx, a.cfg.YtdlpPath,
			"-f", format,
			"--no-playlist",
			"--quiet",
			"-o", outPath,
			watchURL,
		)
		if err != nil {
			_ = os.Remove(outPath)
			lastErr = fmt.Errorf("yt-dlp format %q: %w", format, err)
			continue
		}

		if info, statErr := os.Stat(outPath); statErr != nil || info.Size() == 0 {
			_ = os.Remove(outPath)
			lastErr = fmt.Errorf("yt-dlp format %q produced no output", format)
			continue
		}
		return outPath, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no audio formats configured")
	}
	return "", fmt.Errorf("audio download failed: %w", lastErr)
}
