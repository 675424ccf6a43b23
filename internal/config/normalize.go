package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFFmpeg()
	c.normalizeJobs()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFFmpeg() {
	if strings.TrimSpace(c.FFmpeg.FFmpegBinary) == "" {
		c.FFmpeg.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.FFmpeg.FFprobeBinary) == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	if c.FFmpeg.StreamCheckTimeout <= 0 {
		c.FFmpeg.StreamCheckTimeout = defaultStreamCheckTimeout
	}
	if c.FFmpeg.DurationProbeTimeout <= 0 {
		c.FFmpeg.DurationProbeTimeout = defaultDurationProbeTimeout
	}
	if c.FFmpeg.CancelGracePeriod <= 0 {
		c.FFmpeg.CancelGracePeriod = defaultCancelGracePeriod
	}
}

func (c *Config) normalizeJobs() {
	c.Jobs.DefaultQuality = strings.ToLower(strings.TrimSpace(c.Jobs.DefaultQuality))
	if c.Jobs.DefaultQuality == "" {
		c.Jobs.DefaultQuality = defaultQuality
	}
	if c.Jobs.HistoryLimit <= 0 {
		c.Jobs.HistoryLimit = defaultHistoryLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
