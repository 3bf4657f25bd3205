package episode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"moltcast/internal/fileutil"
	"moltcast/internal/services"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Metadata is the metadata.json record. PostIDs is fixed at creation.
type Metadata struct {
	Episode      int      `json:"episode"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	PostIDs      []string `json:"postIds"`
	SpeakerCount *int     `json:"speakerCount,omitempty"`
}

// Validate checks the field constraints of a metadata record.
func (m Metadata) Validate() error {
	switch {
	case m.Episode <= 0:
		return fmt.Errorf("episode must be positive (got %d)", m.Episode)
	case !datePattern.MatchString(m.Date):
		return fmt.Errorf("date must be YYYY-MM-DD (got %q)", m.Date)
	case m.PostIDs == nil:
		return errors.New("postIds is required")
	case m.SpeakerCount != nil && *m.SpeakerCount <= 0:
		return fmt.Errorf("speakerCount must be positive when present (got %d)", *m.SpeakerCount)
	}
	return nil
}

type rawMetadata struct {
	Episode      *int     `json:"episode"`
	Title        *string  `json:"title"`
	Date         *string  `json:"date"`
	PostIDs      []string `json:"postIds"`
	SpeakerCount *int     `json:"speakerCount"`
}

// ParseMetadata decodes and validates metadata JSON.
func ParseMetadata(data []byte) (Metadata, error) {
	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "episode", "parse metadata", "malformed metadata.json", err)
	}
	if raw.Episode == nil || raw.Title == nil || raw.Date == nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "episode", "parse metadata", "metadata.json requires episode, title, and date", nil)
	}
	m := Metadata{
		Episode:      *raw.Episode,
		Title:        *raw.Title,
		Date:         *raw.Date,
		PostIDs:      raw.PostIDs,
		SpeakerCount: raw.SpeakerCount,
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, services.Wrap(services.ErrValidation, "episode", "parse metadata", err.Error(), nil)
	}
	return m, nil
}

// LoadMetadata reads metadata.json for episode n.
func (l Layout) LoadMetadata(n int) (Metadata, error) {
	data, err := os.ReadFile(l.MetadataPath(n))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, services.Wrap(services.ErrNotFound, "episode", "load metadata",
				fmt.Sprintf("episode %d not found (no %s)", n, MetadataFile), nil)
		}
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	return ParseMetadata(data)
}

// SaveMetadata validates m and rewrites its metadata.json atomically.
func (l Layout) SaveMetadata(m Metadata) error {
	if err := m.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "episode", "save metadata", err.Error(), nil)
	}
	return fileutil.WriteJSON(l.MetadataPath(m.Episode), m)
}
