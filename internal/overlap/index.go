package overlap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"moltcast/internal/logging"
)

var episodeDirPattern = regexp.MustCompile(`^\d{3,}$`)

type rawArtifact struct {
	Filtered []struct {
		PostID string `json:"postId"`
	} `json:"filtered"`
}

// BuildIndex scans episodesDir/<NNN>/raw/*.json and collects the post ids of
// every filter run. A missing episodes directory yields an empty index.
// Unreadable or malformed artifacts are skipped with a warning.
func BuildIndex(episodesDir string, logger *slog.Logger) (Index, error) {
	logger = logging.NewComponentLogger(logger, "overlap")
	index := Index{}

	entries, err := os.ReadDir(episodesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return index, nil
		}
		return nil, fmt.Errorf("read episodes directory: %w", err)
	}

	seen := map[string]map[int]struct{}{}
	for _, entry := range entries {
		if !entry.IsDir() || !episodeDirPattern.MatchString(entry.Name()) {
			continue
		}
		episode, err := strconv.Atoi(entry.Name())
		if err != nil || episode <= 0 || fmt.Sprintf("%03d", episode) != entry.Name() {
			continue
		}
		rawFiles, err := filepath.Glob(filepath.Join(episodesDir, entry.Name(), "raw", "*.json"))
		if err != nil {
			return nil, fmt.Errorf("glob raw artifacts: %w", err)
		}
		for _, path := range rawFiles {
			ids, err := readArtifactIDs(path)
			if err != nil {
				logging.WarnWithContext(logger, "skipping unreadable filter artifact", "overlap_artifact_skipped",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "fix or remove the file"),
					logging.String(logging.FieldImpact, "posts from this run are not counted as previously covered"))
				continue
			}
			for _, id := range ids {
				if seen[id] == nil {
					seen[id] = map[int]struct{}{}
				}
				seen[id][episode] = struct{}{}
			}
		}
	}

	for id, episodes := range seen {
		list := make([]int, 0, len(episodes))
		for n := range episodes {
			list = append(list, n)
		}
		sort.Ints(list)
		index[id] = list
	}
	return index, nil
}

func readArtifactIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact rawArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(artifact.Filtered))
	for _, post := range artifact.Filtered {
		if post.PostID != "" {
			ids = append(ids, post.PostID)
		}
	}
	return ids, nil
}

// Without returns a copy of the index with the given episode removed from
// every entry, so a run attributed to an episode does not count itself.
func (idx Index) Without(episode int) Index {
	out := make(Index, len(idx))
	for id, episodes := range idx {
		kept := make([]int, 0, len(episodes))
		for _, n := range episodes {
			if n != episode {
				kept = append(kept, n)
			}
		}
		if len(kept) > 0 {
			out[id] = kept
		}
	}
	return out
}

// WithOwners returns a copy of the index that also records each ledger
// owner, keeping episode lists ascending and unique.
func (idx Index) WithOwners(owners map[string]int) Index {
	out := make(Index, len(idx)+len(owners))
	for id, episodes := range idx {
		out[id] = append([]int(nil), episodes...)
	}
	for id, owner := range owners {
		episodes := out[id]
		pos := sort.SearchInts(episodes, owner)
		if pos < len(episodes) && episodes[pos] == owner {
			continue
		}
		episodes = append(episodes, 0)
		copy(episodes[pos+1:], episodes[pos:])
		episodes[pos] = owner
		out[id] = episodes
	}
	return out
}
