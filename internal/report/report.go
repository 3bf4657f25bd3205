package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"moltcast/internal/moltbook"
	"moltcast/internal/scraper"
)

const (
	quoteMinUpvotes = 5
	quoteMinLength  = 20
	quoteMaxLength  = 200
	maxQuotes       = 5

	generatedLayout = "Jan 2, 2006, 3:04:05 PM"
)

// Options describes how the posts were harvested.
type Options struct {
	Feed  scraper.Feed
	Limit int
	// Now stamps the report; zero means time.Now.
	Now time.Time
	// MaxDepth bounds reply rendering; zero renders every level present.
	MaxDepth int
}

// Quote is a short, well-received top-level comment.
type Quote struct {
	Content string
	Author  string
	Upvotes int
}

// FeedLabel returns the human label for a feed selection.
func FeedLabel(feed scraper.Feed) string {
	if feed == scraper.FeedBoth {
		return "Hot + Top"
	}
	return cases.Title(language.English).String(string(feed))
}

// Generate renders posts as a markdown report.
func Generate(posts []scraper.ScrapedPost, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Moltbook Daily Report - %s\n\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "**Generated:** %s\n", now.Format(generatedLayout))
	fmt.Fprintf(&b, "**Feed:** %s | **Limit:** %d posts\n", FeedLabel(opts.Feed), opts.Limit)
	fmt.Fprintf(&b, "**Total Posts:** %d\n\n---\n\n", len(posts))

	b.WriteString("## Posts\n\n")
	for _, post := range posts {
		fmt.Fprintf(&b, "### %s\n\n", post.Title)
		fmt.Fprintf(&b, "**Score:** %d | **Comments:** %d | **@%s** in **m/%s**\n\n",
			post.Upvotes, post.CommentCount, post.Author.Name, post.Submolt.Name)
		b.WriteString(post.Content)
		b.WriteString("\n\n")

		if len(post.Comments) > 0 {
			b.WriteString("#### Top Comments:\n\n")
			for _, comment := range post.Comments {
				writeComment(&b, comment, 0, opts.MaxDepth)
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	if quotes := NotableQuotes(posts); len(quotes) > 0 {
		b.WriteString("## Notable Quotes\n\n")
		for _, q := range quotes {
			fmt.Fprintf(&b, "> \"%s\" - @%s\n", q.Content, q.Author)
		}
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func writeComment(b *strings.Builder, comment moltbook.Comment, depth, maxDepth int) {
	fmt.Fprintf(b, "%s- **@%s** (%d pts): %s\n",
		strings.Repeat("  ", depth), comment.Author.Name, comment.Upvotes, comment.Content)
	if maxDepth > 0 && depth+1 >= maxDepth {
		return
	}
	for _, reply := range comment.Replies {
		writeComment(b, reply, depth+1, maxDepth)
	}
}

// NotableQuotes picks up to five top-level comments with at least five
// upvotes and a length strictly between 20 and 200 characters, highest
// score first.
func NotableQuotes(posts []scraper.ScrapedPost) []Quote {
	var quotes []Quote
	for _, post := range posts {
		for _, comment := range post.Comments {
			length := utf8.RuneCountInString(comment.Content)
			if comment.Upvotes < quoteMinUpvotes || length <= quoteMinLength || length >= quoteMaxLength {
				continue
			}
			quotes = append(quotes, Quote{Content: comment.Content, Author: comment.Author.Name, Upvotes: comment.Upvotes})
		}
	}
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Upvotes > quotes[j].Upvotes })
	if len(quotes) > maxQuotes {
		quotes = quotes[:maxQuotes]
	}
	return quotes
}
