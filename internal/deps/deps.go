package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Requirement defines an external binary moltcast shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// SearchDirs are probed, in order, before PATH.
	SearchDirs []string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement and reports availability. Command
// holds the resolved path when the binary was found.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}

	var searched []string
	for _, dir := range req.SearchDirs {
		if dir = strings.TrimSpace(dir); dir == "" {
			continue
		}
		searched = append(searched, dir)
		candidate := filepath.Join(dir, executableName(cmd))
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			status.Command = candidate
			status.Available = true
			return status
		}
	}

	if resolved, err := exec.LookPath(cmd); err == nil {
		status.Command = resolved
		status.Available = true
		return status
	}

	if len(searched) > 0 {
		status.Detail = fmt.Sprintf("binary %q not found in %s or PATH", cmd, strings.Join(searched, ", "))
	} else {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
	}
	return status
}

func executableName(base string) string {
	if runtime.GOOS == "windows" && filepath.Ext(base) == "" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
