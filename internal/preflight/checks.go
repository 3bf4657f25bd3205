package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"moltcast/internal/config"
	"moltcast/internal/moltbook"
)

// CheckSource verifies that the Moltbook API answers a one-post listing.
// It uses a 15-second timeout and a single attempt.
func CheckSource(ctx context.Context, cfg *config.Config) Result {
	const name = "Moltbook API"

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	sourceCfg := moltbook.ConfigFrom(cfg)
	sourceCfg.MaxRetries = 1
	sourceCfg.RateLimit = 0
	client := moltbook.NewClient(sourceCfg)

	if _, err := client.GetPosts(checkCtx, moltbook.SortHot, 1, 0); err != nil {
		return Result{Name: name, Detail: summarizeSourceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckHFToken verifies that a Hugging Face token is available for diarization.
func CheckHFToken(token string) Result {
	const name = "HF token"
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "HF_TOKEN not set (required for speaker diarization)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckArchive verifies that the archive database location is writable.
func CheckArchive(path string) Result {
	const name = "Archive"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	dir := CheckDirectoryAccess(name, filepath.Dir(path))
	if !dir.Passed {
		return dir
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeSourceError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Moltbook API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Moltbook API unreachable)"
	}
	return err.Error()
}
