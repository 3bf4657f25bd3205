package relevance

import (
	"strings"

	"golang.org/x/text/cases"

	"moltcast/internal/moltbook"
)

const (
	hitWeight    = 10
	upvoteWeight = 0.5
)

var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

// CountMatches counts every non-overlapping, case-insensitive occurrence of
// every keyword in the post's title and content. Empty keywords never match.
func CountMatches(post moltbook.Post, keywords []string) int {
	text := fold(post.Title + " " + post.Content)
	hits := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		hits += strings.Count(text, fold(kw))
	}
	return hits
}

// Score combines keyword density with popularity.
func Score(post moltbook.Post, keywords []string) float64 {
	return ScoreHits(CountMatches(post, keywords), post.Upvotes)
}

// ScoreHits applies the scoring formula to a precomputed hit count.
func ScoreHits(hits, upvotes int) float64 {
	return float64(hits)*hitWeight + float64(upvotes)*upvoteWeight
}
