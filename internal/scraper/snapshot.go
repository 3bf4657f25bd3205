package scraper

import (
	"fmt"

	"moltcast/internal/fileutil"
	"moltcast/internal/moltbook"
)

// Snapshot is the scrape artifact: a flat list of posts without comments.
type Snapshot struct {
	Posts []moltbook.Post `json:"posts"`
}

// WriteSnapshot writes posts as a scrape artifact.
func WriteSnapshot(path string, posts []moltbook.Post) error {
	if posts == nil {
		posts = []moltbook.Post{}
	}
	return fileutil.WriteJSON(path, Snapshot{Posts: posts})
}

// ReadSnapshot loads the posts of a scrape artifact.
func ReadSnapshot(path string) ([]moltbook.Post, error) {
	var snap Snapshot
	if err := fileutil.ReadJSON(path, &snap); err != nil {
		return nil, fmt.Errorf("read scrape snapshot: %w", err)
	}
	return snap.Posts, nil
}
