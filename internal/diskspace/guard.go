package diskspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"vidpress/internal/logging"
	"vidpress/internal/services"
)

// safetyFactor pads the requirement so a job never finishes onto a
// completely full volume.
const safetyFactor = 1.1

// EstimateMultiplier is the conservative upper bound applied to the input
// size when estimating how much space a convert or compress job may need.
const EstimateMultiplier = 2

// Guard checks free space on the output volume before a job starts. The
// check is advisory: when free space cannot be determined the guard passes
// rather than failing a job that might have succeeded.
type Guard struct {
	logger *slog.Logger
	statfs func(path string) (uint64, error)
}

// Option configures the guard.
type Option func(*Guard)

// WithStatfs injects a free-space reader (primarily for tests).
func WithStatfs(fn func(path string) (uint64, error)) Option {
	return func(g *Guard) {
		if fn != nil {
			g.statfs = fn
		}
	}
}

// NewGuard constructs a disk space guard.
func NewGuard(logger *slog.Logger, opts ...Option) *Guard {
	guard := &Guard{
		logger: logging.NewComponentLogger(logger, "diskspace"),
		statfs: FreeBytes,
	}
	for _, opt := range opts {
		opt(guard)
	}
	return guard
}

// Check verifies that the volume holding outputPath has room for
// requiredBytes plus a safety margin. When the output file already exists
// its current size is credited against the requirement, since the engine
// overwrites it in place.
func (g *Guard) Check(outputPath string, requiredBytes int64) error {
	if info, err := os.Stat(outputPath); err == nil && !info.IsDir() {
		requiredBytes -= info.Size()
	}
	if requiredBytes <= 0 {
		return nil
	}

	free, err := g.statfs(volumeDir(outputPath))
	if err != nil {
		g.logger.Warn("free space unavailable, skipping disk check",
			logging.String(logging.FieldOutput, outputPath),
			logging.Error(err))
		return nil
	}

	needed := uint64(float64(requiredBytes) * safetyFactor)
	if free < needed {
		shortfallMB := (needed - free) / (1 << 20)
		return services.Wrap(
			services.ErrDiskSpace,
			"diskspace",
			"check",
			fmt.Sprintf("need %s free on the output volume, %s available (short %dMB)",
				humanize.IBytes(needed), humanize.IBytes(free), shortfallMB),
			nil,
		)
	}
	return nil
}

// FreeBytes reports the bytes available to unprivileged users on the
// filesystem containing path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// volumeDir returns the closest existing directory for the output path so
// Statfs can resolve the target volume before the output file exists.
func volumeDir(outputPath string) string {
	dir := filepath.Dir(outputPath)
	for dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "."
}
