package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size of 0 writes an empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = byte(i % 251)
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteJSON encodes v into path, creating parent directories.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Episode describes an on-disk episode fixture.
type Episode struct {
	Number  int
	Title   string
	Date    string
	PostIDs []string
	// Audio writes a non-empty audio.mp3.
	Audio bool
	// Segments, when non-nil, writes transcript.json with these segments.
	Segments []map[string]any
	// Published creates docs/episodes/<NNN>/.
	Published bool
}

// WriteEpisode lays out an episode fixture under projectDir and returns its
// directory.
func WriteEpisode(t testing.TB, projectDir string, ep Episode) string {
	t.Helper()

	num := fmt.Sprintf("%03d", ep.Number)
	dir := filepath.Join(projectDir, "episodes", num)
	if ep.Title == "" {
		ep.Title = fmt.Sprintf("Episode %d", ep.Number)
	}
	if ep.Date == "" {
		ep.Date = "2026-02-01"
	}
	if ep.PostIDs == nil {
		ep.PostIDs = []string{}
	}
	WriteJSON(t, filepath.Join(dir, "metadata.json"), map[string]any{
		"episode": ep.Number,
		"title":   ep.Title,
		"date":    ep.Date,
		"postIds": ep.PostIDs,
	})
	if ep.Audio {
		WriteFile(t, filepath.Join(dir, "audio.mp3"), 2048)
	}
	if ep.Segments != nil {
		WriteJSON(t, filepath.Join(dir, "transcript.json"), map[string]any{"segments": ep.Segments})
	}
	if ep.Published {
		if err := os.MkdirAll(filepath.Join(projectDir, "docs", "episodes", num), 0o755); err != nil {
			t.Fatalf("mkdir published dir: %v", err)
		}
	}
	return dir
}

// WriteLedger writes covered-posts.json under projectDir.
func WriteLedger(t testing.TB, projectDir string, entries map[string]int) {
	t.Helper()
	WriteJSON(t, filepath.Join(projectDir, "episodes", "covered-posts.json"), entries)
}
