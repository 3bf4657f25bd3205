package episode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"moltcast/internal/fileutil"
	"moltcast/internal/ledger"
	"moltcast/internal/logging"
	"moltcast/internal/render"
	"moltcast/internal/services"
	"moltcast/internal/transcript"
)

// PublishResult reports the published files.
type PublishResult struct {
	Episode   int
	Dir       string
	IndexPath string
	FeedPath  string
	// Listed is the number of episodes in the regenerated index and feed.
	Listed int
}

// Publish renders episode n into docs/episodes/<NNN>/ and regenerates the
// site index and feed from every episode's derived stage. Publishing twice
// is refused; delete the published directory to re-publish.
func (m *Manager) Publish(ctx context.Context, n int) (PublishResult, error) {
	logger := m.loggerFor(ctx, n, "publish")
	if !fileutil.Exists(m.layout.TranscriptPath(n)) {
		return PublishResult{}, services.Wrap(services.ErrPrecondition, "episode", "publish",
			fmt.Sprintf("episode %d not transcribed; run `moltcast episode transcribe %d` first", n, n), nil)
	}
	if !fileutil.NonEmptyFile(m.layout.AudioPath(n)) {
		return PublishResult{}, services.Wrap(services.ErrPrecondition, "episode", "publish",
			fmt.Sprintf("%s not found for episode %d", AudioFile, n), nil)
	}
	published := m.layout.PublishedDir(n)
	if fileutil.Exists(published) {
		return PublishResult{}, services.Wrap(services.ErrPrecondition, "episode", "publish",
			fmt.Sprintf("episode %d already published; delete docs/episodes/%s/ to re-publish", n, FormatNumber(n)), nil)
	}

	meta, err := m.layout.LoadMetadata(n)
	if err != nil {
		return PublishResult{}, err
	}
	tr, err := transcript.Load(m.layout.TranscriptPath(n))
	if err != nil {
		return PublishResult{}, err
	}
	entry := render.Entry{Episode: meta.Episode, Title: meta.Title, Date: meta.Date}
	page, err := m.renderer.EpisodePage(entry)
	if err != nil {
		return PublishResult{}, err
	}
	transcriptPage, err := m.renderer.TranscriptPage(entry, tr)
	if err != nil {
		return PublishResult{}, err
	}

	if err := os.MkdirAll(published, 0o755); err != nil {
		return PublishResult{}, fmt.Errorf("create published directory: %w", err)
	}
	// Partial output would make the next publish refuse as already published.
	discard := func() {
		if rmErr := os.RemoveAll(published); rmErr != nil {
			logger.Error("failed to remove incomplete published output", logging.String("dir", published), logging.Error(rmErr))
		}
	}
	if err := m.writeEpisodeFiles(n, published, page, transcriptPage); err != nil {
		discard()
		return PublishResult{}, err
	}
	logger.Info("episode pages rendered", logging.String("dir", published))

	listed, err := m.regenerateSite(ctx, n)
	if err != nil {
		discard()
		return PublishResult{}, err
	}
	logger.Info("episode published", logging.Int("listed_episodes", listed))
	return PublishResult{
		Episode:   n,
		Dir:       published,
		IndexPath: filepath.Join(m.layout.DocsDir(), "index.html"),
		FeedPath:  filepath.Join(m.layout.DocsDir(), "feed.xml"),
		Listed:    listed,
	}, nil
}

func (m *Manager) writeEpisodeFiles(n int, published string, page, transcriptPage []byte) error {
	if err := fileutil.CopyFileVerified(m.layout.AudioPath(n), filepath.Join(published, AudioFile)); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(published, "index.html"), page, 0o644); err != nil {
		return fmt.Errorf("write episode page: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(published, "transcript.html"), transcriptPage, 0o644); err != nil {
		return fmt.Errorf("write transcript page: %w", err)
	}
	return nil
}

// regenerateSite rebuilds docs/index.html and docs/feed.xml from scratch.
func (m *Manager) regenerateSite(ctx context.Context, current int) (int, error) {
	// Coverage is irrelevant to the site, so an empty in-memory ledger suffices.
	statuses, err := m.StatusAll(ctx, ledger.New(""))
	if err != nil {
		return 0, err
	}
	var entries []render.Entry
	for _, s := range statuses {
		if s.Stage != StagePublished && s.Episode != current {
			continue
		}
		entries = append(entries, render.Entry{Episode: s.Episode, Title: s.Title, Date: s.Date})
	}

	index, err := m.renderer.IndexPage(entries)
	if err != nil {
		return 0, err
	}
	feed, err := m.renderer.Feed(entries)
	if err != nil {
		return 0, err
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(m.layout.DocsDir(), "index.html"), index, 0o644); err != nil {
		return 0, fmt.Errorf("write site index: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(m.layout.DocsDir(), "feed.xml"), feed, 0o644); err != nil {
		return 0, fmt.Errorf("write feed: %w", err)
	}
	return len(entries), nil
}
