package filter

import (
	"fmt"
	"path/filepath"
	"sort"

	"moltcast/internal/fileutil"
	"moltcast/internal/moltbook"
	"moltcast/internal/overlap"
	"moltcast/internal/relevance"
	"moltcast/internal/services"
)

// FilteredPost is a post that matched a theme.
type FilteredPost struct {
	PostID            string          `json:"postId"`
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	Author            moltbook.Author `json:"author"`
	PreviouslyCovered []string        `json:"previouslyCovered"`
	ThemeMatch        string          `json:"themeMatch"`
	KeywordHits       int             `json:"keywordHits"`
	Upvotes           int             `json:"upvotes"`
	CreatedAt         string          `json:"created_at"`
	Score             float64         `json:"-"`
}

// Artifact is the filter run document.
type Artifact struct {
	Theme         string         `json:"theme"`
	Filtered      []FilteredPost `json:"filtered"`
	TotalMatching int            `json:"totalMatching"`
	Returned      int            `json:"returned"`
	Overlap       overlap.Result `json:"overlap"`
}

// Options configures a filter run.
type Options struct {
	Theme string
	Limit int
	// History maps post ids to the episodes that already used them.
	History overlap.Index
}

// Run scores posts against opts.Theme. An unknown theme or non-positive
// limit is a validation error.
func Run(posts []moltbook.Post, opts Options) (Artifact, error) {
	theme, err := relevance.Lookup(opts.Theme)
	if err != nil {
		return Artifact{}, err
	}
	if opts.Limit <= 0 {
		return Artifact{}, services.Wrap(services.ErrValidation, "filter", "run",
			fmt.Sprintf("limit must be positive (got %d)", opts.Limit), nil)
	}

	matching := make([]FilteredPost, 0, len(posts))
	for _, post := range posts {
		hits := relevance.CountMatches(post, theme.Keywords)
		if hits == 0 {
			continue
		}
		matching = append(matching, FilteredPost{
			PostID:            post.ID,
			Title:             post.Title,
			Content:           post.Content,
			Author:            post.Author,
			PreviouslyCovered: previouslyCovered(opts.History[post.ID]),
			ThemeMatch:        theme.Name,
			KeywordHits:       hits,
			Upvotes:           post.Upvotes,
			CreatedAt:         post.CreatedAt,
			Score:             relevance.ScoreHits(hits, post.Upvotes),
		})
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Score > matching[j].Score })

	top := matching
	if len(top) > opts.Limit {
		top = top[:opts.Limit]
	}
	ids := make([]string, len(top))
	for i, post := range top {
		ids[i] = post.PostID
	}

	return Artifact{
		Theme:         theme.Name,
		Filtered:      top,
		TotalMatching: len(matching),
		Returned:      len(top),
		Overlap:       overlap.Detect(ids, opts.History),
	}, nil
}

func previouslyCovered(episodes []int) []string {
	out := make([]string, len(episodes))
	for i, n := range episodes {
		out[i] = fmt.Sprintf("%03d", n)
	}
	return out
}

// ArtifactName is the file name a run for theme is stored under.
func ArtifactName(theme string) string {
	return "filtered-" + theme + ".json"
}

// Write stores the artifact at path.
func Write(path string, artifact Artifact) error {
	if artifact.Filtered == nil {
		artifact.Filtered = []FilteredPost{}
	}
	return fileutil.WriteJSON(path, artifact)
}

// WriteForEpisode stores the artifact under rawDir using the theme's name and
// returns the path.
func WriteForEpisode(rawDir string, artifact Artifact) (string, error) {
	path := filepath.Join(rawDir, ArtifactName(artifact.Theme))
	return path, Write(path, artifact)
}
