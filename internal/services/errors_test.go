package services_test

import (
	"errors"
	"strings"
	"testing"

	"vidpress/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEngineFailure, "transcode", "run", "engine exited", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEngineFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode", "run", "engine exited"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToUnexpected(t *testing.T) {
	err := services.Wrap(nil, "preflight", "validate", "", nil)
	if !errors.Is(err, services.ErrUnexpected) {
		t.Fatalf("expected unexpected marker, got %v", err)
	}
}

func TestExitCodeRoundTrip(t *testing.T) {
	wrapped := services.Wrap(services.ErrEngineFailure, "transcode", "run", "", &services.ExitCodeError{Code: 187})
	code, ok := services.ExitCode(wrapped)
	if !ok {
		t.Fatalf("expected exit code in chain: %v", wrapped)
	}
	if code != 187 {
		t.Fatalf("expected exit code 187, got %d", code)
	}

	if _, ok := services.ExitCode(errors.New("plain")); ok {
		t.Fatal("expected no exit code for plain error")
	}
}
