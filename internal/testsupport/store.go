package testsupport

import (
	"context"
	"testing"
	"time"

	"moltcast/internal/archive"
	"moltcast/internal/config"
	"moltcast/internal/moltbook"
)

// MustOpenArchive opens the archive configured on cfg and registers cleanup.
func MustOpenArchive(t testing.TB, cfg *config.Config) *archive.Store {
	t.Helper()

	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		t.Fatalf("archive.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedArchive upserts posts as if they were scraped from feed at seenAt.
func SeedArchive(t testing.TB, store *archive.Store, feed string, seenAt time.Time, posts ...moltbook.Post) {
	t.Helper()

	if _, err := store.Upsert(context.Background(), posts, feed, seenAt); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
}
