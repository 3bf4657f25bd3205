package transcriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"moltcast/internal/fileutil"
	"moltcast/internal/logging"
	"moltcast/internal/services"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Result describes a completed transcription.
type Result struct {
	TranscriptPath string
	Outputs        []string
	Duration       time.Duration
}

// Service runs WhisperX.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, logger: logging.NewComponentLogger(logger, "transcriber")}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// HasToken reports whether a Hugging Face token is configured.
func (s *Service) HasToken() bool {
	return strings.TrimSpace(s.cfg.HFToken) != ""
}

// Available reports whether the transcriber environment is installed.
func (s *Service) Available() error {
	if s.commandRunner != nil {
		return nil
	}
	if s.cfg.VenvDir != "" && !fileutil.IsDir(s.cfg.VenvDir) {
		return services.Wrap(services.ErrPrecondition, "transcriber", "check environment",
			fmt.Sprintf("%s not found; create the WhisperX venv before transcribing", filepath.Base(s.cfg.VenvDir)), nil)
	}
	bin := s.cfg.binary()
	if strings.ContainsRune(bin, filepath.Separator) {
		if !fileutil.Exists(bin) {
			return services.Wrap(services.ErrPrecondition, "transcriber", "check environment",
				fmt.Sprintf("%s not found; install whisperx into the venv", bin), nil)
		}
		return nil
	}
	if _, err := exec.LookPath(bin); err != nil {
		return services.Wrap(services.ErrPrecondition, "transcriber", "check environment",
			fmt.Sprintf("%s not found on PATH", bin), err)
	}
	return nil
}

// Transcribe runs WhisperX on audioPath and writes transcript.* into
// outputDir. A zero timeout leaves only the caller's context in charge.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir string, timeout time.Duration) (Result, error) {
	if audioPath == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transcriber", "transcribe", "audio path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	s.logger.Info("whisperx started",
		logging.String("audio", audioPath),
		logging.String("model", orDefault(s.cfg.Model, DefaultModel)),
		logging.String("timeout", timeout.String()))

	if err := s.run(ctx, s.cfg.binary(), s.buildArgs(audioPath, outputDir)...); err != nil {
		s.cleanup(audioPath, outputDir)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrExternalTool, "transcriber", "transcribe",
				fmt.Sprintf("whisperx timed out after %s; rerun with a longer --timeout", timeout),
				fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "transcriber", "transcribe", "whisperx failed", err)
	}

	outputs, err := s.renameOutputs(audioPath, outputDir)
	if err != nil {
		s.cleanup(audioPath, outputDir)
		return Result{}, services.Wrap(services.ErrExternalTool, "transcriber", "collect outputs", "rename whisperx outputs", err)
	}
	transcriptPath := filepath.Join(outputDir, TranscriptBase+".json")
	if !fileutil.Exists(transcriptPath) {
		s.cleanup(audioPath, outputDir)
		return Result{}, services.Wrap(services.ErrExternalTool, "transcriber", "collect outputs",
			"whisperx finished without producing a json transcript", nil)
	}

	result := Result{TranscriptPath: transcriptPath, Outputs: outputs, Duration: time.Since(started)}
	s.logger.Info("whisperx completed",
		logging.Strings("outputs", outputs),
		logging.String("duration", result.Duration.Round(time.Second).String()))
	return result, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking pyannote checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", filepath.Base(name), err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (s *Service) buildArgs(audioPath, outputDir string) []string {
	return []string{
		audioPath,
		"--model", orDefault(s.cfg.Model, DefaultModel),
		"--compute_type", orDefault(s.cfg.ComputeType, DefaultComputeType),
		"--language", orDefault(s.cfg.Language, DefaultLanguage),
		"--diarize",
		"--hf_token", s.cfg.HFToken,
		"--output_dir", outputDir,
	}
}

func outputBase(audioPath string) string {
	return strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
}

func (s *Service) renameOutputs(audioPath, outputDir string) ([]string, error) {
	base := outputBase(audioPath)
	var renamed []string
	for _, ext := range OutputExtensions {
		from := filepath.Join(outputDir, base+ext)
		to := filepath.Join(outputDir, TranscriptBase+ext)
		if from == to || !fileutil.Exists(from) {
			continue
		}
		if err := os.Rename(from, to); err != nil {
			return renamed, err
		}
		renamed = append(renamed, to)
	}
	return renamed, nil
}

// cleanup removes raw and renamed outputs after a failed run.
func (s *Service) cleanup(audioPath, outputDir string) {
	base := outputBase(audioPath)
	for _, ext := range OutputExtensions {
		for _, name := range []string{base + ext, TranscriptBase + ext} {
			path := filepath.Join(outputDir, name)
			if path == audioPath {
				continue
			}
			if err := os.Remove(path); err == nil {
				s.logger.Debug("removed partial transcript output", logging.String("path", path))
			}
		}
	}
}
