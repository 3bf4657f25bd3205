package episode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"moltcast/internal/fileutil"
	"moltcast/internal/logging"
	"moltcast/internal/services"
	"moltcast/internal/transcript"
	"moltcast/internal/transcriber"
)

// TranscribeResult reports a completed transcription.
type TranscribeResult struct {
	Episode        int
	TranscriptPath string
	SpeakerCount   int
	Duration       time.Duration
}

// Transcribe runs the transcriber on episode n's audio. A zero timeout uses
// the configured default. On any failure no transcript artifact remains.
func (m *Manager) Transcribe(ctx context.Context, n int, timeout time.Duration) (TranscribeResult, error) {
	logger := m.loggerFor(ctx, n, "transcribe")
	if !fileutil.IsDir(m.layout.Dir(n)) {
		return TranscribeResult{}, services.Wrap(services.ErrNotFound, "episode", "transcribe",
			fmt.Sprintf("episode %d not found", n), nil)
	}
	if m.transcriber == nil {
		return TranscribeResult{}, services.Wrap(services.ErrConfiguration, "episode", "transcribe", "no transcriber configured", nil)
	}
	if err := m.transcriber.Available(); err != nil {
		return TranscribeResult{}, err
	}
	if !m.transcriber.HasToken() {
		return TranscribeResult{}, services.Wrap(services.ErrPrecondition, "episode", "transcribe",
			"HF_TOKEN not set; it is required for diarization", nil)
	}
	audio := m.layout.AudioPath(n)
	if !fileutil.Exists(audio) {
		return TranscribeResult{}, services.Wrap(services.ErrPrecondition, "episode", "transcribe",
			fmt.Sprintf("%s not found for episode %d", AudioFile, n), nil)
	}
	if !fileutil.NonEmptyFile(audio) {
		return TranscribeResult{}, services.Wrap(services.ErrPrecondition, "episode", "transcribe",
			fmt.Sprintf("%s is empty for episode %d", AudioFile, n), nil)
	}
	if fileutil.Exists(m.layout.TranscriptPath(n)) {
		return TranscribeResult{}, services.Wrap(services.ErrPrecondition, "episode", "transcribe",
			"already transcribed; delete the transcript files to re-run", nil)
	}
	meta, err := m.layout.LoadMetadata(n)
	if err != nil {
		return TranscribeResult{}, err
	}

	if timeout <= 0 {
		timeout = m.settings.TranscribeTimeout
	}
	run, err := m.transcriber.Transcribe(ctx, audio, m.layout.Dir(n), timeout)
	if err != nil {
		return TranscribeResult{}, err
	}

	tr, err := transcript.Load(m.layout.TranscriptPath(n))
	if err != nil {
		m.discardTranscript(n)
		return TranscribeResult{}, err
	}
	speakers := len(tr.Speakers())
	if speakers > 0 {
		meta.SpeakerCount = &speakers
		if err := m.layout.SaveMetadata(meta); err != nil {
			m.discardTranscript(n)
			return TranscribeResult{}, fmt.Errorf("record speaker count: %w", err)
		}
	}

	logger.Info("episode transcribed",
		logging.Int("speakers", speakers),
		logging.String("duration", run.Duration.Round(time.Second).String()))
	return TranscribeResult{
		Episode:        n,
		TranscriptPath: m.layout.TranscriptPath(n),
		SpeakerCount:   speakers,
		Duration:       run.Duration,
	}, nil
}

func (m *Manager) discardTranscript(n int) {
	for _, ext := range transcriber.OutputExtensions {
		path := filepath.Join(m.layout.Dir(n), transcriber.TranscriptBase+ext)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove transcript output",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "transcript_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "remove "+path+" manually"),
				logging.String(logging.FieldImpact, "episode may report transcribed with an unusable transcript"))
		}
	}
}
