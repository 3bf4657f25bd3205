package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"moltcast/internal/moltbook"
	"moltcast/internal/services"
)

// Fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists harvested posts in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one archived post plus its bookkeeping columns.
type Record struct {
	Post      moltbook.Post
	Feed      string
	FirstSeen time.Time
	LastSeen  time.Time
	SeenCount int
}

// ListOptions narrows List and Posts. Zero values mean no constraint.
type ListOptions struct {
	Limit      int
	Since      time.Time
	Submolt    string
	MinUpvotes int
}

// Open creates or connects to the archive database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "open", "archive path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert archives posts seen on feed at seenAt and returns how many rows were
// new. Existing rows get refreshed counters and payload.
func (s *Store) Upsert(ctx context.Context, posts []moltbook.Post, feed string, seenAt time.Time) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	stamp := seenAt.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, post := range posts {
		if strings.TrimSpace(post.ID) == "" {
			continue
		}
		payload, err := json.Marshal(post)
		if err != nil {
			return 0, fmt.Errorf("encode post %s: %w", post.ID, err)
		}

		var existing int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE id = ?", post.ID).Scan(&existing); err != nil {
			return 0, fmt.Errorf("probe post %s: %w", post.ID, err)
		}

		query, args, err := sq.Insert("posts").
			Columns("id", "title", "author", "submolt", "upvotes", "comment_count",
				"created_at", "feed", "payload", "first_seen", "last_seen", "seen_count").
			Values(post.ID, post.Title, post.Author.Name, post.Submolt.Name, post.Upvotes, post.CommentCount,
				post.CreatedAt, feed, string(payload), stamp, stamp, 1).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				upvotes = excluded.upvotes,
				comment_count = excluded.comment_count,
				payload = excluded.payload,
				last_seen = excluded.last_seen,
				seen_count = posts.seen_count + 1`).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert post %s: %w", post.ID, err)
		}
		if existing == 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// List returns archived records, most recently seen first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	builder := sq.Select("payload", "feed", "first_seen", "last_seen", "seen_count").
		From("posts").
		OrderBy("last_seen DESC", "upvotes DESC", "id ASC")
	if !opts.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"last_seen": opts.Since.UTC().Format(timeLayout)})
	}
	if submolt := strings.TrimSpace(opts.Submolt); submolt != "" {
		builder = builder.Where(sq.Eq{"submolt": submolt})
	}
	if opts.MinUpvotes > 0 {
		builder = builder.Where(sq.GtOrEq{"upvotes": opts.MinUpvotes})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			payload, feed, firstSeen, lastSeen string
			seenCount                          int
		)
		if err := rows.Scan(&payload, &feed, &firstSeen, &lastSeen, &seenCount); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		var post moltbook.Post
		if err := json.Unmarshal([]byte(payload), &post); err != nil {
			return nil, fmt.Errorf("decode archived post: %w", err)
		}
		rec := Record{Post: post, Feed: feed, SeenCount: seenCount}
		rec.FirstSeen, _ = time.Parse(timeLayout, firstSeen)
		rec.LastSeen, _ = time.Parse(timeLayout, lastSeen)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return records, nil
}

// Posts returns just the archived posts matching opts.
func (s *Store) Posts(ctx context.Context, opts ListOptions) ([]moltbook.Post, error) {
	records, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	posts := make([]moltbook.Post, 0, len(records))
	for _, rec := range records {
		posts = append(posts, rec.Post)
	}
	return posts, nil
}

// Count returns the number of archived posts.
func (s *Store) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("posts").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
