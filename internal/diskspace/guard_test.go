package diskspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidpress/internal/diskspace"
	"vidpress/internal/services"
)

func TestCheckFailsOnShortfall(t *testing.T) {
	guard := diskspace.NewGuard(nil, diskspace.WithStatfs(func(string) (uint64, error) {
		return 1 << 20, nil
	}))

	err := guard.Check(filepath.Join(t.TempDir(), "out.mp4"), 1<<30)
	if !errors.Is(err, services.ErrDiskSpace) {
		t.Fatalf("expected disk space error, got %v", err)
	}
	if !strings.Contains(err.Error(), "MB") {
		t.Fatalf("expected shortfall in MB in detail, got %q", err.Error())
	}
}

func TestCheckPassesWithRoom(t *testing.T) {
	guard := diskspace.NewGuard(nil, diskspace.WithStatfs(func(string) (uint64, error) {
		return 10 << 30, nil
	}))
	if err := guard.Check(filepath.Join(t.TempDir(), "out.mp4"), 1<<30); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
}

func TestCheckIsAdvisoryWhenStatfsFails(t *testing.T) {
	guard := diskspace.NewGuard(nil, diskspace.WithStatfs(func(string) (uint64, error) {
		return 0, errors.New("unsupported platform")
	}))
	if err := guard.Check(filepath.Join(t.TempDir(), "out.mp4"), 1<<40); err != nil {
		t.Fatalf("expected advisory pass, got %v", err)
	}
}

func TestCheckCreditsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(output, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	var sawStatfs bool
	guard := diskspace.NewGuard(nil, diskspace.WithStatfs(func(string) (uint64, error) {
		sawStatfs = true
		return 0, nil
	}))

	// Requirement fully covered by the existing file: no statfs needed.
	if err := guard.Check(output, 4096); err != nil {
		t.Fatalf("expected pass, got %v", err)
	}
	if sawStatfs {
		t.Fatal("expected statfs to be skipped when requirement is zero")
	}
}
