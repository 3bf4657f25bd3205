package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moltcast/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckHFToken(t *testing.T) {
	if CheckHFToken(" ").Passed {
		t.Fatal("expected blank token to fail")
	}
	if !strings.Contains(CheckHFToken("").Detail, "HF_TOKEN") {
		t.Fatal("expected detail to name HF_TOKEN")
	}
	if !CheckHFToken("hf_abc").Passed {
		t.Fatal("expected token to pass")
	}
}

func TestCheckSource_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected single-post probe, got %q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "posts": []any{}})
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSourceURL(srv.URL))
	result := CheckSource(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckSource_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSourceURL(srv.URL))
	result := CheckSource(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for forbidden response")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_OfflineProject(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHFToken("hf_test"), testsupport.WithTranscriberVenv())

	results := RunAll(context.Background(), cfg, Options{SkipNetwork: true})
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if got := strings.Join(names, ","); got != "Project directory,WhisperX,FFmpeg,HF token" {
		t.Fatalf("unexpected checks: %s", got)
	}
}

func TestRunAll_ReportsMissingPieces(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := testsupport.NewConfig(t, testsupport.WithArchive())
	if err := os.MkdirAll(cfg.EpisodesDir(), 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg, Options{SkipNetwork: true})
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected whisperx and token failures, got %+v", failed)
	}
	if failed[0].Name != "WhisperX" || failed[1].Name != "HF token" {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	var sawEpisodes, sawArchive bool
	for _, r := range results {
		sawEpisodes = sawEpisodes || r.Name == "Episodes directory"
		sawArchive = sawArchive || r.Name == "Archive"
	}
	if !sawEpisodes || !sawArchive {
		t.Fatalf("expected episodes and archive checks, got %+v", results)
	}
}

func TestCheckTranscriber_PathFallback(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("whisperx"))

	result := CheckTranscriber(cfg)
	if !result.Passed {
		t.Fatalf("expected whisperx on PATH to pass, got %+v", result)
	}
	want := filepath.Join(testsupport.BaseDir(cfg), "bin", "whisperx")
	if result.Detail != want {
		t.Fatalf("detail = %q, want %q", result.Detail, want)
	}
}

func TestCheckBinaries_OptionalFFmpegMissing(t *testing.T) {
	t.Setenv("PATH", "")
	cfg := testsupport.NewConfig(t, testsupport.WithTranscriberVenv())

	results := CheckBinaries(cfg)
	if len(results) != 2 {
		t.Fatalf("expected whisperx and ffmpeg results, got %+v", results)
	}
	if !results[0].Passed || results[0].Name != "WhisperX" {
		t.Fatalf("expected venv whisperx to pass, got %+v", results[0])
	}
	ffmpeg := results[1]
	if ffmpeg.Name != "FFmpeg" || !ffmpeg.Passed {
		t.Fatalf("missing optional ffmpeg should not fail, got %+v", ffmpeg)
	}
	if !strings.HasPrefix(ffmpeg.Detail, "optional: ") {
		t.Fatalf("expected optional note, got %q", ffmpeg.Detail)
	}
}
