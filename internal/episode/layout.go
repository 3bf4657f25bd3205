package episode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Well-known artifact names inside an episode directory.
const (
	MetadataFile   = "metadata.json"
	AudioFile      = "audio.mp3"
	TranscriptFile = "transcript.json"
	NotebookDir    = "notebooklm"
	RawDir         = "raw"
	LedgerFile     = "covered-posts.json"
)

// Zero-padded to three digits; wider once numbering passes 999.
var numberPattern = regexp.MustCompile(`^\d{3,}$`)

// FormatNumber zero-pads an episode number to three digits.
func FormatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Layout resolves project paths.
type Layout struct {
	Root string
}

func (l Layout) EpisodesDir() string { return filepath.Join(l.Root, "episodes") }
func (l Layout) DocsDir() string     { return filepath.Join(l.Root, "docs") }
func (l Layout) ContextDir() string  { return filepath.Join(l.Root, "context") }
func (l Layout) LedgerPath() string  { return filepath.Join(l.EpisodesDir(), LedgerFile) }

func (l Layout) Dir(n int) string {
	return filepath.Join(l.EpisodesDir(), FormatNumber(n))
}

func (l Layout) MetadataPath(n int) string   { return filepath.Join(l.Dir(n), MetadataFile) }
func (l Layout) AudioPath(n int) string      { return filepath.Join(l.Dir(n), AudioFile) }
func (l Layout) TranscriptPath(n int) string { return filepath.Join(l.Dir(n), TranscriptFile) }
func (l Layout) NotebookPath(n int) string   { return filepath.Join(l.Dir(n), NotebookDir) }
func (l Layout) RawPath(n int) string        { return filepath.Join(l.Dir(n), RawDir) }

// PublishedDir is docs/episodes/<NNN>/; its existence marks the episode published.
func (l Layout) PublishedDir(n int) string {
	return filepath.Join(l.DocsDir(), "episodes", FormatNumber(n))
}

// PostsReportName is the notebooklm markdown file for an episode.
func PostsReportName(n int) string {
	return fmt.Sprintf("episode-%s-posts.md", FormatNumber(n))
}

// ParseNumber reports the episode number a directory name encodes. Only the
// canonical FormatNumber spelling counts, so "0007" is not episode 7.
func ParseNumber(name string) (int, bool) {
	if !numberPattern.MatchString(name) {
		return 0, false
	}
	n, err := strconv.Atoi(name)
	if err != nil || n <= 0 || FormatNumber(n) != name {
		return 0, false
	}
	return n, true
}

// Numbers lists existing episode numbers ascending. Only directories named
// by FormatNumber count.
func (l Layout) Numbers() ([]int, error) {
	entries, err := os.ReadDir(l.EpisodesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	var numbers []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if n, ok := ParseNumber(entry.Name()); ok {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers, nil
}

// NextNumber returns one more than the highest existing episode, or 1.
// Numbers freed by deletion are never reused while a higher one exists.
func (l Layout) NextNumber() (int, error) {
	numbers, err := l.Numbers()
	if err != nil {
		return 0, err
	}
	if len(numbers) == 0 {
		return 1, nil
	}
	return numbers[len(numbers)-1] + 1, nil
}
