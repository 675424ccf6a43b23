package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"vidpress/internal/config"
	"vidpress/internal/deps"
	"vidpress/internal/media/ffprobe"
	"vidpress/internal/services"
)

// Checker validates that a job can run before any engine process is
// spawned: tool availability, input existence and non-emptiness, and
// stream validity. Each check fails fast with a classified error.
type Checker struct {
	cfg    *config.Config
	prober *ffprobe.Client
}

// NewChecker constructs a preflight checker.
func NewChecker(cfg *config.Config, prober *ffprobe.Client) *Checker {
	return &Checker{cfg: cfg, prober: prober}
}

// CheckTools verifies the engine and probing tool both answer a version
// query. Any unavailable tool fails the check.
func (c *Checker) CheckTools(ctx context.Context) error {
	statuses := deps.CheckTools(ctx, Requirements(c.cfg))
	if missing := deps.Missing(statuses); len(missing) > 0 {
		return services.Wrap(
			services.ErrToolNotFound,
			"preflight",
			"tools",
			fmt.Sprintf("%s not found; install FFmpeg and ensure it is on PATH", strings.Join(missing, ", ")),
			nil,
		)
	}
	return nil
}

// ValidateInput verifies the input file exists, is non-empty, and holds a
// decodable video stream.
func (c *Checker) ValidateInput(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrInputMissing, "preflight", "input", fmt.Sprintf("file does not exist: %s", path), nil)
		}
		return services.Wrap(services.ErrInputMissing, "preflight", "input", "stat input", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrInputMissing, "preflight", "input", fmt.Sprintf("path is a directory: %s", path), nil)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrInputEmpty, "preflight", "input", fmt.Sprintf("file is empty: %s", path), nil)
	}

	codecType, err := c.prober.FirstVideoCodecType(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrInputCorrupted, "preflight", "stream", "file is not a valid video or is corrupted", err)
	}
	if codecType == "" {
		return services.Wrap(services.ErrInputCorrupted, "preflight", "stream", "file contains no decodable video stream", nil)
	}
	return nil
}

// Requirements lists the external tools vidpress needs for the given
// config.
func Requirements(cfg *config.Config) []deps.Requirement {
	ffmpegBinary := "ffmpeg"
	ffprobeBinary := "ffprobe"
	if cfg != nil {
		ffmpegBinary = cfg.FFmpeg.FFmpegBinary
		ffprobeBinary = cfg.FFmpeg.FFprobeBinary
	}
	return []deps.Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Transcoding engine"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Media inspection"},
	}
}
