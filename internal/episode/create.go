package episode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"moltcast/internal/fileutil"
	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/report"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
)

// CreateOptions configures a new episode.
type CreateOptions struct {
	Limit int
	// Title defaults to "Episode <n>".
	Title string
}

// CreateResult describes a created episode.
type CreateResult struct {
	Episode  int
	Dir      string
	Title    string
	PostIDs  []string
	Posts    []scraper.ScrapedPost
	Warnings []string
}

// Create selects up to opts.Limit posts the ledger has not covered, in fetch
// order, and lays out the next episode directory. The ledger is read but
// never written.
func (m *Manager) Create(ctx context.Context, opts CreateOptions, source Harvester, led *ledger.Ledger) (CreateResult, error) {
	if opts.Limit <= 0 {
		return CreateResult{}, services.Wrap(services.ErrValidation, "episode", "create",
			fmt.Sprintf("limit must be positive (got %d)", opts.Limit), nil)
	}
	if source == nil || led == nil {
		return CreateResult{}, services.Wrap(services.ErrValidation, "episode", "create", "post source and ledger are required", nil)
	}
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldOperation, "create"))

	fetchLimit := opts.Limit * 2
	if fetchLimit > m.settings.MaxFetch {
		fetchLimit = m.settings.MaxFetch
	}
	posts, err := source.Harvest(ctx, scraper.Options{
		Limit:       fetchLimit,
		Feed:        scraper.FeedTop,
		MaxComments: m.settings.MaxComments,
		MaxDepth:    m.settings.MaxDepth,
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("fetch candidate posts: %w", err)
	}
	logger.Debug("loaded coverage ledger", logging.Int("covered_posts", led.Len()))

	selected := make([]scraper.ScrapedPost, 0, opts.Limit)
	for _, post := range posts {
		if len(selected) == opts.Limit {
			break
		}
		if led.IsCovered(post.ID) {
			continue
		}
		selected = append(selected, post)
	}
	logger.Info("selected uncovered posts",
		logging.Int("fetched", len(posts)),
		logging.Int("selected", len(selected)),
		logging.Int("requested", opts.Limit))

	var warnings []string
	if len(selected) < opts.Limit {
		msg := fmt.Sprintf("Only %d uncovered posts available (requested %d)", len(selected), opts.Limit)
		warnings = append(warnings, msg)
		logging.WarnWithContext(logger, msg, "episode_short_selection",
			logging.String(logging.FieldErrorHint, "wait for new posts or lower --limit"),
			logging.String(logging.FieldImpact, "episode created with fewer posts"))
	}

	if err := os.MkdirAll(m.layout.EpisodesDir(), 0o755); err != nil {
		return CreateResult{}, fmt.Errorf("create episodes directory: %w", err)
	}
	n, err := m.layout.NextNumber()
	if err != nil {
		return CreateResult{}, err
	}
	dir := m.layout.Dir(n)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return CreateResult{}, fmt.Errorf("create episode directory: %w", err)
	}

	result, err := m.populate(ctx, n, opts, selected)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Error("failed to remove incomplete episode", logging.String("dir", dir), logging.Error(rmErr))
		}
		return CreateResult{}, err
	}
	result.Warnings = warnings
	m.loggerFor(ctx, n, "create").Info("episode created",
		logging.String("title", result.Title),
		logging.Int("posts", len(result.PostIDs)))
	return result, nil
}

func (m *Manager) populate(ctx context.Context, n int, opts CreateOptions, selected []scraper.ScrapedPost) (CreateResult, error) {
	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("Episode %d", n)
	}
	now := m.now()
	ids := make([]string, 0, len(selected))
	for _, post := range selected {
		ids = append(ids, post.ID)
	}
	meta := Metadata{Episode: n, Title: title, Date: now.Format("2006-01-02"), PostIDs: ids}

	notebook := m.layout.NotebookPath(n)
	if err := os.MkdirAll(notebook, 0o755); err != nil {
		return CreateResult{}, fmt.Errorf("create notebooklm directory: %w", err)
	}
	if err := m.layout.SaveMetadata(meta); err != nil {
		return CreateResult{}, fmt.Errorf("write metadata: %w", err)
	}
	if err := m.copyContext(ctx, n, notebook); err != nil {
		return CreateResult{}, err
	}

	doc := report.Generate(selected, report.Options{
		Feed:     scraper.FeedTop,
		Limit:    opts.Limit,
		Now:      now,
		MaxDepth: m.settings.MaxDepth,
	})
	if err := fileutil.WriteFileAtomic(filepath.Join(notebook, PostsReportName(n)), []byte(doc), 0o644); err != nil {
		return CreateResult{}, fmt.Errorf("write posts report: %w", err)
	}

	return CreateResult{Episode: n, Dir: m.layout.Dir(n), Title: title, PostIDs: ids, Posts: selected}, nil
}

func (m *Manager) copyContext(ctx context.Context, n int, notebook string) error {
	logger := m.loggerFor(ctx, n, "create")
	for _, name := range m.settings.ContextFiles {
		src := filepath.Join(m.layout.ContextDir(), name)
		if !fileutil.Exists(src) {
			logger.Debug("context file not found", logging.String("file", name))
			continue
		}
		if err := fileutil.CopyFile(src, filepath.Join(notebook, name)); err != nil {
			return fmt.Errorf("copy context file %s: %w", name, err)
		}
	}
	return nil
}
