// Package transcript reads the diarized transcript.json produced by the
// transcriber and exposes speaker-aware views of its segments.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"moltcast/internal/services"
)

// DefaultSpeaker labels segments the diarizer could not attribute.
const DefaultSpeaker = "SPEAKER_00"

// Segment is one timed utterance. Every field is optional on disk.
type Segment struct {
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text,omitempty"`
	Start   float64 `json:"start,omitempty"`
	End     float64 `json:"end,omitempty"`
}

// Transcript is the transcript.json document.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Turn is a run of consecutive segments from one speaker.
type Turn struct {
	Speaker string
	Index   int
	Text    string
}

// Parse decodes transcript JSON.
func Parse(data []byte) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, services.Wrap(services.ErrValidation, "transcript", "parse", "malformed transcript.json", err)
	}
	return t, nil
}

// Load reads and decodes the transcript at path.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	return Parse(data)
}

func speakerOf(seg Segment) string {
	if s := strings.TrimSpace(seg.Speaker); s != "" {
		return s
	}
	return DefaultSpeaker
}

// Speakers returns the distinct explicitly labelled speakers in order of
// first appearance.
func (t Transcript) Speakers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, seg := range t.Segments {
		s := strings.TrimSpace(seg.Speaker)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Turns merges consecutive same-speaker segments and numbers speakers by
// first appearance. Unlabelled segments belong to DefaultSpeaker.
func (t Transcript) Turns() []Turn {
	index := make(map[string]int)
	var turns []Turn
	for _, seg := range t.Segments {
		speaker := speakerOf(seg)
		text := strings.TrimSpace(seg.Text)
		if n := len(turns); n > 0 && turns[n-1].Speaker == speaker {
			turns[n-1].Text += " " + text
			continue
		}
		idx, ok := index[speaker]
		if !ok {
			idx = len(index)
			index[speaker] = idx
		}
		turns = append(turns, Turn{Speaker: speaker, Index: idx, Text: text})
	}
	return turns
}
