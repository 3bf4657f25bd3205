package episode

import "moltcast/internal/fileutil"

// Stage is a derived lifecycle stage.
type Stage string

const (
	StageDraft       Stage = "draft"
	StageRecorded    Stage = "recorded"
	StageTranscribed Stage = "transcribed"
	StagePublished   Stage = "published"
)

// Artifacts records which lifecycle artifacts exist for an episode.
type Artifacts struct {
	Audio      bool
	Transcript bool
	Published  bool
}

// DeriveStage applies the stage precedence. Published output without a
// transcript never counts as published.
func DeriveStage(a Artifacts) Stage {
	switch {
	case a.Transcript && a.Published:
		return StagePublished
	case a.Transcript:
		return StageTranscribed
	case a.Audio:
		return StageRecorded
	default:
		return StageDraft
	}
}

// Probe snapshots the artifacts of episode n. Audio counts only as a
// non-empty regular file.
func (l Layout) Probe(n int) Artifacts {
	return Artifacts{
		Audio:      fileutil.NonEmptyFile(l.AudioPath(n)),
		Transcript: fileutil.Exists(l.TranscriptPath(n)),
		Published:  fileutil.Exists(l.PublishedDir(n)),
	}
}
