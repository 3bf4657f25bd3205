// Package scraper harvests Moltbook feeds: it merges the hot and top
// listings, drops duplicate posts, and attaches a depth-bounded comment tree
// to each post. A failed detail fetch keeps the post with no comments.
package scraper
