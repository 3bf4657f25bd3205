package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"moltcast/internal/config"
	"moltcast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *httptest.Server
}

// fakePost is the wire shape the fake Moltbook server returns.
func fakePost(id, title, content string, upvotes int) map[string]any {
	return map[string]any{
		"id":            id,
		"title":         title,
		"content":       content,
		"author":        map[string]any{"name": "agent-" + id, "id": "a-" + id},
		"submolt":       map[string]any{"name": "general", "id": "s1"},
		"upvotes":       upvotes,
		"comment_count": 1,
		"created_at":    "2026-01-30T12:00:00Z",
		"url":           nil,
	}
}

// newFakeMoltbook serves hot and top listings plus post details.
func newFakeMoltbook(t *testing.T, hot, top []map[string]any) *httptest.Server {
	t.Helper()
	byID := map[string]map[string]any{}
	for _, p := range append(append([]map[string]any{}, hot...), top...) {
		byID[p["id"].(string)] = p
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/posts":
			posts := hot
			if r.URL.Query().Get("sort") == "top" {
				posts = top
			}
			if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit < len(posts) {
				posts = posts[:limit]
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "posts": posts})
		case strings.HasPrefix(r.URL.Path, "/posts/"):
			id := strings.TrimPrefix(r.URL.Path, "/posts/")
			post, ok := byID[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"post":    post,
				"comments": []any{map[string]any{
					"id":         "c-" + id,
					"content":    "A thoughtful reply about " + id + " that is long enough to quote.",
					"author":     map[string]any{"name": "commenter", "id": "c1"},
					"upvotes":    7,
					"created_at": "2026-01-30T13:00:00Z",
					"replies":    []any{},
				}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupCLITestEnv(t *testing.T, hot, top []map[string]any, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("MOLTCAST_PROJECT_DIR", "")
	t.Setenv("PODCAST_BASE_URL", "")

	srv := newFakeMoltbook(t, hot, top)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithSourceURL(srv.URL)}, opts...)...)
	cfg.Source.MaxRetries = 1
	cfg.Episode.ContextFiles = nil

	configPath := filepath.Join(testsupport.BaseDir(cfg), "moltcast.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, server: srv}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("moltcast %s: %v\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), err, stdout, stderr)
	}
	return stdout
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q, got:\n%s", substr, output)
	}
}

func numberedPosts(prefix string, count int, content string) []map[string]any {
	posts := make([]map[string]any, 0, count)
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		posts = append(posts, fakePost(id, "Post "+id, content, 10*i))
	}
	return posts
}
