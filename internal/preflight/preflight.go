package preflight

import (
	"context"

	"moltcast/internal/config"
	"moltcast/internal/deps"
	"moltcast/internal/fileutil"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options toggles checks that reach the network.
type Options struct {
	SkipNetwork bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Project directory", cfg.Paths.ProjectDir))

	// Episode and site directories are created on demand.
	for _, dir := range []struct{ name, path string }{
		{"Episodes directory", cfg.EpisodesDir()},
		{"Site directory", cfg.DocsDir()},
	} {
		if fileutil.Exists(dir.path) {
			results = append(results, CheckDirectoryAccess(dir.name, dir.path))
		}
	}

	if cfg.Archive.Enabled {
		results = append(results, CheckArchive(cfg.Archive.Path))
	}

	results = append(results, CheckBinaries(cfg)...)
	results = append(results, CheckHFToken(cfg.Transcribe.HFToken))

	if !opts.SkipNetwork {
		results = append(results, CheckSource(ctx, cfg))
	}
	return results
}

// CheckBinaries resolves the external tools a transcription run needs.
func CheckBinaries(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries([]deps.Requirement{
		deps.TranscriberRequirement(cfg.Transcribe.Command, cfg.Transcribe.VenvDir),
		deps.FFmpegRequirement(),
	})
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, binaryResult(status))
	}
	return results
}

// CheckTranscriber reports only the WhisperX lookup.
func CheckTranscriber(cfg *config.Config) Result {
	status := deps.CheckBinaries([]deps.Requirement{
		deps.TranscriberRequirement(cfg.Transcribe.Command, cfg.Transcribe.VenvDir),
	})[0]
	return binaryResult(status)
}

// Missing optional binaries pass with a note.
func binaryResult(status deps.Status) Result {
	switch {
	case status.Available:
		return Result{Name: status.Name, Passed: true, Detail: status.Command}
	case status.Optional:
		return Result{Name: status.Name, Passed: true, Detail: "optional: " + status.Detail}
	default:
		return Result{Name: status.Name, Detail: status.Detail}
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
