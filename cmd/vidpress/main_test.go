package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	setupHome(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read generated config: %v", err)
	}
	requireContains(t, string(data), "[ffmpeg]")

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists without --overwrite")
	}
}

func TestConfigValidateWithDefaults(t *testing.T) {
	setupHome(t)
	out, _, err := runCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "defaults were used")
}

func TestConfigShowPrintsSample(t *testing.T) {
	out, _, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[jobs]")
	requireContains(t, out, "default_quality")
}

func TestCompressRejectsUnknownQuality(t *testing.T) {
	setupHome(t)
	_, _, err := runCLI(t, "compress", "/nonexistent/input.mp4", "--quality", "turbo")
	if err == nil {
		t.Fatal("expected error for unknown quality tier")
	}
	requireContains(t, err.Error(), "unknown quality")
}

func TestConvertRequiresInputArgument(t *testing.T) {
	setupHome(t)
	if _, _, err := runCLI(t, "convert"); err == nil {
		t.Fatal("expected argument validation error")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("/media/in/movie.mkv", "convert"); got != "/media/in/movie_converted.mp4" {
		t.Fatalf("unexpected convert default: %s", got)
	}
	if got := defaultOutputPath("/media/in/movie.webm", "compress"); got != "/media/in/movie_compressed.webm" {
		t.Fatalf("unexpected compress default: %s", got)
	}
}
