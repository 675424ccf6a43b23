package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidpress/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "vidpress", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.FFmpeg.FFmpegBinary != "ffmpeg" || cfg.FFmpeg.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpeg.FFmpegBinary, cfg.FFmpeg.FFprobeBinary)
	}
	if cfg.FFmpeg.StreamCheckTimeout != 10 || cfg.FFmpeg.DurationProbeTimeout != 30 {
		t.Fatalf("unexpected probe timeouts: %d %d", cfg.FFmpeg.StreamCheckTimeout, cfg.FFmpeg.DurationProbeTimeout)
	}
	if cfg.FFmpeg.CancelGracePeriod != 5 {
		t.Fatalf("unexpected cancel grace period: %d", cfg.FFmpeg.CancelGracePeriod)
	}
	if cfg.Jobs.DefaultQuality != "balanced" {
		t.Fatalf("unexpected default quality: %q", cfg.Jobs.DefaultQuality)
	}
	if !cfg.Jobs.DiskCheckEnabled {
		t.Fatal("expected disk check enabled by default")
	}
}

func TestLoadParsesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[ffmpeg]",
		`ffmpeg_binary = "/opt/ffmpeg/bin/ffmpeg"`,
		"stream_check_timeout = 20",
		"",
		"[jobs]",
		`default_quality = "Extreme"`,
		"",
		"[logging]",
		`format = "json"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.FFmpeg.FFmpegBinary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpeg.FFmpegBinary)
	}
	if cfg.FFmpeg.StreamCheckTimeout != 20 {
		t.Fatalf("unexpected stream check timeout: %d", cfg.FFmpeg.StreamCheckTimeout)
	}
	if cfg.FFmpeg.FFprobeBinary != "ffprobe" {
		t.Fatalf("expected ffprobe default to survive partial config, got %q", cfg.FFmpeg.FFprobeBinary)
	}
	if cfg.Jobs.DefaultQuality != "extreme" {
		t.Fatalf("expected quality lowered to extreme, got %q", cfg.Jobs.DefaultQuality)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsUnknownQuality(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[jobs]\ndefault_quality = \"ultra\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unknown quality")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.StateDir = filepath.Join(dir, "state")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, p := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err=%v", p, err)
		}
	}
}

func TestSampleConfigMentionsEverySection(t *testing.T) {
	sample := config.SampleConfig()
	for _, section := range []string{"[paths]", "[ffmpeg]", "[jobs]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Fatalf("sample config missing section %s", section)
		}
	}
}
