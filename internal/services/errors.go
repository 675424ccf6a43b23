package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for job failure classification. Every error surfaced to
// the job controller is tagged with exactly one of these so the terminal
// outcome can name a specific failure kind.
var (
	ErrToolNotFound   = errors.New("tool not found")
	ErrInputMissing   = errors.New("input missing")
	ErrInputEmpty     = errors.New("input empty")
	ErrInputCorrupted = errors.New("input corrupted")
	ErrDiskSpace      = errors.New("insufficient disk space")
	ErrEngineFailure  = errors.New("engine failure")
	ErrCancelled      = errors.New("cancelled")
	ErrUnexpected     = errors.New("unexpected failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later outcome classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUnexpected
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCodeError carries the raw exit code of a failed engine invocation so
// callers can surface it for diagnosis.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode extracts the engine exit code from an error chain. The second
// return is false when no exit code is attached.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
