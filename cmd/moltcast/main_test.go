package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moltcast/internal/config"
	"moltcast/internal/episode"
	"moltcast/internal/filter"
	"moltcast/internal/fileutil"
	"moltcast/internal/ledger"
	"moltcast/internal/moltbook"
	"moltcast/internal/projectlock"
	"moltcast/internal/scraper"
	"moltcast/internal/services"
	"moltcast/internal/testsupport"
)

func TestEpisodeLifecycleCommands(t *testing.T) {
	env := setupCLITestEnv(t, nil, numberedPosts("t", 3, "ordinary chatter"))
	layout := episode.Layout{Root: env.cfg.Paths.ProjectDir}

	out := env.mustRun(t, "episode", "new", "--limit", "2", "--title", "Pilot")
	requireContains(t, out, "Created episode 001: Pilot")

	meta, err := layout.LoadMetadata(1)
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if strings.Join(meta.PostIDs, ",") != "t1,t2" {
		t.Fatalf("unexpected selection: %v", meta.PostIDs)
	}
	if !fileutil.NonEmptyFile(filepath.Join(layout.NotebookPath(1), episode.PostsReportName(1))) {
		t.Fatal("expected posts report in notebooklm folder")
	}

	_, _, err = env.run(t, "episode", "confirm", "1")
	if !errors.Is(err, services.ErrPrecondition) || services.ExitCode(err) != 4 {
		t.Fatalf("expected precondition failure before audio exists, got %v", err)
	}

	testsupport.WriteFile(t, layout.AudioPath(1), 1024)
	out = env.mustRun(t, "episode", "confirm", "1")
	requireContains(t, out, "2 posts marked as covered")

	led, err := ledger.Load(layout.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}
	if owner, ok := led.Owner("t1"); !ok || owner != 1 {
		t.Fatalf("expected t1 owned by episode 1, got %d %v", owner, ok)
	}

	_, _, err = env.run(t, "episode", "publish", "1")
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected publish to require a transcript, got %v", err)
	}

	testsupport.WriteJSON(t, layout.TranscriptPath(1), map[string]any{
		"segments": []map[string]any{{"speaker": "SPEAKER_00", "text": "Welcome back."}},
	})
	out = env.mustRun(t, "episode", "publish", "1")
	requireContains(t, out, "Published episode 001")
	for _, path := range []string{
		filepath.Join(layout.PublishedDir(1), "index.html"),
		filepath.Join(layout.PublishedDir(1), "transcript.html"),
		filepath.Join(layout.DocsDir(), "index.html"),
		filepath.Join(layout.DocsDir(), "feed.xml"),
	} {
		if !fileutil.NonEmptyFile(path) {
			t.Fatalf("expected %s to be written", path)
		}
	}

	out = env.mustRun(t, "episode", "status", "--json")
	var statuses []map[string]any
	if err := json.Unmarshal([]byte(out), &statuses); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if len(statuses) != 1 || statuses[0]["status"] != "published" || statuses[0]["covered"] != true {
		t.Fatalf("unexpected status: %v", statuses)
	}

	_, stderr, err := env.run(t, "episode", "new", "--limit", "2")
	if err != nil {
		t.Fatalf("second episode new: %v", err)
	}
	requireContains(t, stderr, "Only 1 uncovered posts available (requested 2)")

	out = env.mustRun(t, "episode", "status")
	requireContains(t, out, "published")
	requireContains(t, out, "draft")
}

func TestEpisodeDeleteRequiresForceForCoveredPosts(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)
	project := env.cfg.Paths.ProjectDir
	testsupport.WriteEpisode(t, project, testsupport.Episode{Number: 1, PostIDs: []string{"a", "b"}, Audio: true})
	testsupport.WriteLedger(t, project, map[string]int{"a": 1, "b": 1, "z": 9})

	_, _, err := env.run(t, "episode", "delete", "1")
	if !errors.Is(err, services.ErrConflict) || services.ExitCode(err) != 5 {
		t.Fatalf("expected conflict without --force, got %v", err)
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Fatalf("expected remedy in error, got %v", err)
	}

	out := env.mustRun(t, "episode", "delete", "1", "--force")
	requireContains(t, out, "Released 2 covered posts")

	led, err := ledger.Load(filepath.Join(project, "episodes", "covered-posts.json"))
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}
	if led.Len() != 1 || !led.IsCovered("z") {
		t.Fatalf("expected only z to remain covered, got %v", led.Entries())
	}
	if fileutil.Exists(filepath.Join(project, "episodes", "001")) {
		t.Fatal("expected episode directory removed")
	}
}

func TestEpisodeConfirmReportsReassignedPosts(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)
	project := env.cfg.Paths.ProjectDir
	testsupport.WriteEpisode(t, project, testsupport.Episode{Number: 2, PostIDs: []string{"a", "b", "c"}, Audio: true})
	testsupport.WriteLedger(t, project, map[string]int{"a": 1, "b": 1})

	out := env.mustRun(t, "episode", "confirm", "2")
	requireContains(t, out, "Episode 002 confirmed: 3 posts marked as covered")
	requireContains(t, out, "2 posts were previously attributed to another episode")

	led, err := ledger.Load(filepath.Join(project, "episodes", "covered-posts.json"))
	if err != nil {
		t.Fatalf("ledger.Load: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if owner, ok := led.Owner(id); !ok || owner != 2 {
			t.Fatalf("expected %s owned by episode 2, got %d (%v)", id, owner, ok)
		}
	}

	out = env.mustRun(t, "episode", "confirm", "2")
	if strings.Contains(out, "previously attributed") {
		t.Fatalf("re-confirming should not report reassignment:\n%s", out)
	}
}

func TestFailedCommandIsLogged(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)

	rootCmd, cmdCtx := newRootCommandWithContext()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--config", env.configPath, "episode", "status", "7"})

	err := execute(context.Background(), rootCmd, cmdCtx)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	logged := stderr.String()
	requireContains(t, logged, "command failed")
	requireContains(t, logged, "event_type=command_failed")
	requireContains(t, logged, "error_kind=not_found")
	requireContains(t, logged, "moltcast episode status")
}

func TestEpisodeCommandsRejectBadNumbers(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)

	_, _, err := env.run(t, "episode", "confirm", "abc")
	if services.ExitCode(err) != 6 {
		t.Fatalf("expected validation exit code, got %v (%d)", err, services.ExitCode(err))
	}

	_, _, err = env.run(t, "episode", "status", "7")
	if !errors.Is(err, services.ErrNotFound) || services.ExitCode(err) != 3 {
		t.Fatalf("expected not found for unknown episode, got %v", err)
	}
}

func TestMutatingCommandsHonorProjectLock(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)
	testsupport.WriteEpisode(t, env.cfg.Paths.ProjectDir, testsupport.Episode{Number: 1, PostIDs: []string{"a"}, Audio: true})

	lock, err := projectlock.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	_, _, err = env.run(t, "episode", "confirm", "1")
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	env.mustRun(t, "episode", "confirm", "1")
}

func TestScrapeWritesSnapshotAndArchive(t *testing.T) {
	hot := numberedPosts("h", 3, "hot takes")
	top := []map[string]any{hot[1], fakePost("t1", "Top post", "top content", 99)}
	env := setupCLITestEnv(t, hot, top, testsupport.WithArchive())
	target := filepath.Join(testsupport.BaseDir(env.cfg), "snap", "posts.json")

	out := env.mustRun(t, "scrape", "--limit", "10", "--output", target)
	requireContains(t, out, "Fetched 4 posts (both)")
	requireContains(t, out, "Archived 4 posts (4 new)")

	posts, err := scraper.ReadSnapshot(target)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "h1,h2,h3,t1" {
		t.Fatalf("expected hot then top without duplicates, got %v", ids)
	}

	out = env.mustRun(t, "scrape", "--limit", "2", "--output", target)
	requireContains(t, out, "Fetched 2 posts")

	out = env.mustRun(t, "archive", "list", "--json")
	var listed struct {
		Total int             `json:"total"`
		Posts []moltbook.Post `json:"posts"`
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode archive json: %v\n%s", err, out)
	}
	if listed.Total != 4 || len(listed.Posts) != 4 {
		t.Fatalf("expected 4 archived posts, got total=%d listed=%d", listed.Total, len(listed.Posts))
	}

	out = env.mustRun(t, "archive", "list", "--limit", "1")
	requireContains(t, out, "Showing 1 of 4 archived posts")
}

func TestArchiveListRequiresEnabledArchive(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)
	_, _, err := env.run(t, "archive", "list")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestFilterAttributesRunsAndEnforcesOverlap(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)
	project := env.cfg.Paths.ProjectDir
	snapshot := filepath.Join(testsupport.BaseDir(env.cfg), "posts.json")

	var posts []moltbook.Post
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
		posts = append(posts, moltbook.Post{ID: id, Title: "Leaked API key", Content: "a security breach", Upvotes: 5})
	}
	posts = append(posts, moltbook.Post{ID: "x1", Title: "Gardening", Content: "tomatoes"})
	if err := scraper.WriteSnapshot(snapshot, posts); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	out := env.mustRun(t, "filter", "--theme", "security", "--input", snapshot)
	var artifact filter.Artifact
	if err := json.Unmarshal([]byte(out), &artifact); err != nil {
		t.Fatalf("decode artifact: %v\n%s", err, out)
	}
	if artifact.TotalMatching != 5 || artifact.Returned != 5 || artifact.Overlap.OverlapPercent != 0 {
		t.Fatalf("unexpected artifact summary: %+v", artifact)
	}

	testsupport.WriteEpisode(t, project, testsupport.Episode{Number: 1})
	out = env.mustRun(t, "filter", "--theme", "security", "--input", snapshot, "--episode", "1")
	requireContains(t, out, filepath.Join("001", "raw", "filtered-security.json"))

	testsupport.WriteEpisode(t, project, testsupport.Episode{Number: 2})
	_, stderr, err := env.run(t, "filter", "--theme", "security", "--input", snapshot, "--episode", "2", "--strict")
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected strict overlap rejection, got %v", err)
	}
	requireContains(t, stderr, "Warning: 100% overlap")
	if fileutil.Exists(filepath.Join(project, "episodes", "002", "raw", "filtered-security.json")) {
		t.Fatal("rejected run must not write an artifact")
	}

	out = env.mustRun(t, "filter", "--theme", "security", "--input", snapshot, "--limit", "2")
	if err := json.Unmarshal([]byte(out), &artifact); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if artifact.Returned != 2 || len(artifact.Filtered[0].PreviouslyCovered) != 1 || artifact.Filtered[0].PreviouslyCovered[0] != "001" {
		t.Fatalf("expected posts tagged with episode 001, got %+v", artifact.Filtered)
	}

	// Re-running for the same episode does not count its own earlier run.
	_, stderr, err = env.run(t, "filter", "--theme", "security", "--input", snapshot, "--episode", "1", "--strict")
	if err != nil {
		t.Fatalf("re-run for episode 1: %v", err)
	}
	if strings.Contains(stderr, "Warning:") {
		t.Fatalf("unexpected overlap warning on re-run: %s", stderr)
	}
}

func TestFilterInputValidation(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil)

	_, _, err := env.run(t, "filter", "--theme", "security")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without input, got %v", err)
	}

	_, _, err = env.run(t, "filter", "--theme", "security", "--input", filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for missing snapshot, got %v", err)
	}
}

func TestReportWritesMarkdown(t *testing.T) {
	env := setupCLITestEnv(t, numberedPosts("h", 2, "hot content"), nil)
	dir := filepath.Join(testsupport.BaseDir(env.cfg), "reports")

	out := env.mustRun(t, "report", "--feed", "hot", "--limit", "2", "--output", dir)
	requireContains(t, out, "Scraped 2 posts with comments")

	matches, err := filepath.Glob(filepath.Join(dir, "moltbook-*.md"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one report file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	body := string(data)
	requireContains(t, body, "# Moltbook Daily Report")
	requireContains(t, body, "Post h1")
	requireContains(t, body, "## Notable Quotes")
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t, nil, nil, testsupport.WithHFToken("hf_test"), testsupport.WithTranscriberVenv())
	out := env.mustRun(t, "doctor", "--offline")
	requireContains(t, out, "All checks passed")

	bare := setupCLITestEnv(t, nil, nil)
	out, _, err := bare.run(t, "doctor")
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected failing checks, got %v", err)
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "Moltbook API")
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "conf", "moltcast.toml")

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		var stdout, stderr strings.Builder
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return stdout.String(), err
	}

	out, err := run("config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := run("config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, err = run("--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, err = run("config", "init", "--stdout")
	if err != nil {
		t.Fatalf("config init --stdout: %v", err)
	}
	if out != config.SampleConfig() {
		t.Fatalf("expected sample config on stdout, got:\n%s", out)
	}

	if _, err := run("config", "init", "--stdout", "--path", target); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for --stdout with --path, got %v", err)
	}
}
