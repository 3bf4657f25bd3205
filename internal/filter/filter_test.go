package filter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"moltcast/internal/moltbook"
	"moltcast/internal/overlap"
	"moltcast/internal/services"
)

func posts() []moltbook.Post {
	return []moltbook.Post{
		{ID: "p1", Title: "Weather today", Content: "sunny", Upvotes: 500},
		{ID: "p2", Title: "Security breach", Content: "a breach of trust", Upvotes: 10},
		{ID: "p3", Title: "Security tips", Content: "", Upvotes: 100},
		{ID: "p4", Title: "security", Content: "", Upvotes: 100},
		{ID: "p5", Title: "Who am I?", Content: "identity and memory", Upvotes: 4},
	}
}

func TestRunRanksAndTrims(t *testing.T) {
	art, err := Run(posts(), Options{Theme: "security", Limit: 2, History: overlap.Index{"p3": {1, 2}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if art.TotalMatching != 3 || art.Returned != 2 {
		t.Fatalf("unexpected counts matching=%d returned=%d", art.TotalMatching, art.Returned)
	}
	// p3 and p4 both score 60; p3 came first. p2 scores 35.
	if art.Filtered[0].PostID != "p3" || art.Filtered[1].PostID != "p4" {
		t.Fatalf("unexpected order %s, %s", art.Filtered[0].PostID, art.Filtered[1].PostID)
	}
	first := art.Filtered[0]
	if first.ThemeMatch != "security" || first.KeywordHits != 1 {
		t.Fatalf("unexpected first post %+v", first)
	}
	if len(first.PreviouslyCovered) != 2 || first.PreviouslyCovered[0] != "001" || first.PreviouslyCovered[1] != "002" {
		t.Fatalf("unexpected previouslyCovered %v", first.PreviouslyCovered)
	}
	if art.Overlap.OverlapPercent != 50 || len(art.Overlap.OverlappingPosts) != 1 {
		t.Fatalf("unexpected overlap %+v", art.Overlap)
	}
}

func TestRunRejectsUnknownThemeAndBadLimit(t *testing.T) {
	if _, err := Run(posts(), Options{Theme: "weather", Limit: 5}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown theme, got %v", err)
	}
	if _, err := Run(posts(), Options{Theme: "security", Limit: 0}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero limit, got %v", err)
	}
}

func TestRunNoMatches(t *testing.T) {
	art, err := Run([]moltbook.Post{{ID: "x", Title: "cats"}}, Options{Theme: "identity", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if art.Returned != 0 || art.Overlap.OverlapPercent != 0 || art.Overlap.OverlappingPosts == nil {
		t.Fatalf("unexpected empty artifact %+v", art)
	}
}

func TestWriteForEpisodeFeedsHistoricalIndex(t *testing.T) {
	episodes := t.TempDir()
	art, err := Run(posts(), Options{Theme: "security", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	path, err := WriteForEpisode(filepath.Join(episodes, "002", "raw"), art)
	if err != nil {
		t.Fatalf("WriteForEpisode: %v", err)
	}
	if filepath.Base(path) != "filtered-security.json" {
		t.Fatalf("unexpected artifact name %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"theme", "filtered", "totalMatching", "returned", "overlap"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("artifact missing %q: %s", key, raw)
		}
	}
	first := doc["filtered"].([]any)[0].(map[string]any)
	if _, ok := first["Score"]; ok {
		t.Fatal("score must not be serialized")
	}
	if first["previouslyCovered"] == nil {
		t.Fatal("previouslyCovered must serialize as an array")
	}

	index, err := overlap.BuildIndex(episodes, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := index["p2"]; len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected p2 indexed under episode 2, got %v", got)
	}
}
