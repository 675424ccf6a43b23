package preflight

import (
	"context"
	"fmt"
	"os"
	"unicode"

	"golang.org/x/sys/unix"

	"github.com/dustin/go-humanize"

	"vidpress/internal/config"
	"vidpress/internal/deps"
	"vidpress/internal/diskspace"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the environment checks the status command reports:
// tool availability, state directory access, and free space on the state
// volume.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range deps.CheckTools(ctx, Requirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, checkFreeSpace(cfg.Paths.StateDir))

	return results
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
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

func checkFreeSpace(path string) Result {
	const name = "Free space"
	free, err := diskspace.FreeBytes(path)
	if err != nil {
		// Advisory only: unreadable free space never blocks anything.
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("unavailable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: humanize.IBytes(free)}
}

// maxFilenameLength is the point past which file names start upsetting
// the engine on some filesystems.
const maxFilenameLength = 100

// ProblematicFilename reports whether the file's base name could cause
// trouble for the engine: over-long names or non-ASCII characters. The
// returned detail is suitable for a warning; the condition is never fatal.
func ProblematicFilename(name string) (string, bool) {
	if len(name) > maxFilenameLength {
		return fmt.Sprintf("file name exceeds %d characters", maxFilenameLength), true
	}
	for _, r := range name {
		if r > unicode.MaxASCII {
			return "file name contains non-ASCII characters", true
		}
	}
	return "", false
}
