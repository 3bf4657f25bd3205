package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"moltcast/internal/logging"
	"moltcast/internal/moltbook"
)

// Source is the item source the scraper reads from.
type Source interface {
	GetPosts(ctx context.Context, sort moltbook.Sort, limit, offset int) (moltbook.PostPage, error)
	GetPostDetail(ctx context.Context, id string) (moltbook.PostDetail, error)
}

// Feed selects which listings to harvest.
type Feed string

const (
	FeedHot  Feed = "hot"
	FeedTop  Feed = "top"
	FeedBoth Feed = "both"
)

// ParseFeed validates a feed name.
func ParseFeed(value string) (Feed, error) {
	switch Feed(value) {
	case FeedHot, FeedTop, FeedBoth:
		return Feed(value), nil
	default:
		return "", fmt.Errorf("feed must be hot, top, or both (got %q)", value)
	}
}

// Options controls a harvest.
type Options struct {
	Limit       int
	Feed        Feed
	MaxComments int
	MaxDepth    int
}

// ScrapedPost is a post with its trimmed comment tree and the feed it came from.
type ScrapedPost struct {
	moltbook.Post
	Comments []moltbook.Comment `json:"comments"`
	Source   Feed               `json:"source"`
}

// Scraper harvests posts from a Source.
type Scraper struct {
	source Source
	logger *slog.Logger
}

// New constructs a scraper.
func New(source Source, logger *slog.Logger) *Scraper {
	return &Scraper{source: source, logger: logging.NewComponentLogger(logger, "scraper")}
}

// Listing fetches the requested feeds and merges them in fetch order without
// fetching details.
func (s *Scraper) Listing(ctx context.Context, feed Feed, limit int) ([]moltbook.Post, error) {
	switch feed {
	case FeedHot, FeedTop:
		page, err := s.source.GetPosts(ctx, moltbook.Sort(feed), limit, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch %s posts: %w", feed, err)
		}
		s.logger.Debug("fetched listing", logging.String("feed", string(feed)), logging.Int("count", len(page.Posts)))
		return page.Posts, nil
	case FeedBoth:
		hot, err := s.source.GetPosts(ctx, moltbook.SortHot, limit, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch hot posts: %w", err)
		}
		top, err := s.source.GetPosts(ctx, moltbook.SortTop, limit, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch top posts: %w", err)
		}
		merged := Dedupe(hot.Posts, top.Posts)
		s.logger.Debug("merged listings",
			logging.Int("hot", len(hot.Posts)),
			logging.Int("top", len(top.Posts)),
			logging.Int("unique", len(merged)))
		return merged, nil
	default:
		return nil, fmt.Errorf("unsupported feed %q", feed)
	}
}

// Harvest fetches listings and then each post's comments. Detail failures are
// logged and the post is kept with an empty comment list.
func (s *Scraper) Harvest(ctx context.Context, opts Options) ([]ScrapedPost, error) {
	posts, err := s.Listing(ctx, opts.Feed, opts.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]ScrapedPost, 0, len(posts))
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scraped := ScrapedPost{Post: post, Comments: []moltbook.Comment{}, Source: opts.Feed}
		detail, err := s.source.GetPostDetail(ctx, post.ID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.WarnWithContext(s.logger, "post detail unavailable", "post_detail_failed",
				logging.String("post_id", post.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retry later if comments are needed"),
				logging.String(logging.FieldImpact, "post kept without comments"))
			out = append(out, scraped)
			continue
		}
		comments := detail.Comments
		if opts.MaxComments >= 0 && len(comments) > opts.MaxComments {
			comments = comments[:opts.MaxComments]
		}
		scraped.Comments = TrimReplies(comments, opts.MaxDepth)
		out = append(out, scraped)
	}
	return out, nil
}

// Dedupe concatenates listings and keeps the first occurrence of each id.
func Dedupe(lists ...[]moltbook.Post) []moltbook.Post {
	seen := make(map[string]struct{})
	var out []moltbook.Post
	for _, list := range lists {
		for _, post := range list {
			if _, ok := seen[post.ID]; ok {
				continue
			}
			seen[post.ID] = struct{}{}
			out = append(out, post)
		}
	}
	return out
}

// TrimReplies returns a copy of comments whose reply trees hold at most
// maxDepth levels: top-level comments are level 1 and replies below the last
// kept level are dropped. maxDepth < 1 keeps only top-level comments.
func TrimReplies(comments []moltbook.Comment, maxDepth int) []moltbook.Comment {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return trimLevel(comments, maxDepth, 1)
}

func trimLevel(comments []moltbook.Comment, maxDepth, level int) []moltbook.Comment {
	out := make([]moltbook.Comment, len(comments))
	for i, comment := range comments {
		out[i] = comment
		if level >= maxDepth {
			out[i].Replies = []moltbook.Comment{}
			continue
		}
		out[i].Replies = trimLevel(comment.Replies, maxDepth, level+1)
	}
	return out
}
