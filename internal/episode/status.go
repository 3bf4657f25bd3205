package episode

import (
	"context"
	"errors"

	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/services"
)

// StatusInfo summarizes one episode.
type StatusInfo struct {
	Episode      int    `json:"episode"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Stage        Stage  `json:"status"`
	PostCount    int    `json:"postCount"`
	Covered      bool   `json:"covered"`
	SpeakerCount *int   `json:"speakerCount,omitempty"`
}

// IsCovered reports whether every post of an episode is in the ledger. An
// episode with no posts is never covered.
func IsCovered(m Metadata, led *ledger.Ledger) bool {
	if led == nil {
		return false
	}
	return led.AllCovered(m.PostIDs)
}

// Status derives the status of episode n.
func (m *Manager) Status(n int, led *ledger.Ledger) (StatusInfo, error) {
	meta, err := m.layout.LoadMetadata(n)
	if err != nil {
		return StatusInfo{}, err
	}
	return StatusInfo{
		Episode:      meta.Episode,
		Title:        meta.Title,
		Date:         meta.Date,
		Stage:        DeriveStage(m.layout.Probe(n)),
		PostCount:    len(meta.PostIDs),
		Covered:      IsCovered(meta, led),
		SpeakerCount: meta.SpeakerCount,
	}, nil
}

// StatusAll derives the status of every episode, ascending. Episode
// directories without readable metadata are skipped with a warning.
func (m *Manager) StatusAll(ctx context.Context, led *ledger.Ledger) ([]StatusInfo, error) {
	numbers, err := m.layout.Numbers()
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, m.logger)
	statuses := make([]StatusInfo, 0, len(numbers))
	for _, n := range numbers {
		info, err := m.Status(n, led)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
				logging.WarnWithContext(logger, "skipping episode without valid metadata", "episode_metadata_invalid",
					logging.String(logging.FieldEpisode, FormatNumber(n)),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix or delete "+m.layout.MetadataPath(n)),
					logging.String(logging.FieldImpact, "episode omitted from listings and the published index"))
				continue
			}
			return nil, err
		}
		statuses = append(statuses, info)
	}
	return statuses, nil
}
