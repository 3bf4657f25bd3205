package deps

import (
	"path/filepath"
	"strings"
)

// TranscriberRequirement describes the WhisperX executable a transcription
// run will use. A binary inside venvDir/bin wins over PATH.
func TranscriberRequirement(command, venvDir string) Requirement {
	req := Requirement{
		Name:        "WhisperX",
		Command:     command,
		Description: "Required for episode transcription",
	}
	if venvDir = strings.TrimSpace(venvDir); venvDir != "" {
		req.SearchDirs = []string{filepath.Join(venvDir, "bin")}
	}
	return req
}

// FFmpegRequirement describes ffmpeg, which WhisperX uses to decode audio.
func FFmpegRequirement() Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     "ffmpeg",
		Description: "Used by WhisperX to decode episode audio",
		Optional:    true,
	}
}
