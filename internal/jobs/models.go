package jobs

import (
	"errors"
	"fmt"
	"time"

	"vidpress/internal/ffmpeg"
	"vidpress/internal/services"
)

// Job describes one transcode request. A Job is immutable once its worker
// is attached.
type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	Mode       ffmpeg.Mode
	Tier       ffmpeg.Tier
	CreatedAt  time.Time
}

// ErrorKind classifies a failed outcome.
type ErrorKind string

const (
	KindToolNotFound          ErrorKind = "tool_not_found"
	KindInputMissing          ErrorKind = "input_missing"
	KindInputEmpty            ErrorKind = "input_empty"
	KindInputCorrupted        ErrorKind = "input_corrupted"
	KindInsufficientDiskSpace ErrorKind = "insufficient_disk_space"
	KindEngineFailure         ErrorKind = "engine_failure"
	KindUnexpected            ErrorKind = "unexpected_failure"
)

// OutcomeStatus is the terminal disposition of a job.
type OutcomeStatus string

const (
	StatusSucceeded OutcomeStatus = "succeeded"
	StatusFailed    OutcomeStatus = "failed"
	StatusCancelled OutcomeStatus = "cancelled"
)

// Outcome is the terminal result of a job, produced exactly once.
type Outcome struct {
	Status     OutcomeStatus
	OutputPath string
	Kind       ErrorKind
	ExitCode   int
	Detail     string
}

// Event is one entry in a job's event stream. Exactly one of the two
// views is set: a progress percentage, or the terminal outcome. The
// outcome is always the last event before the stream closes.
type Event struct {
	Percent int
	Outcome *Outcome
}

// classifyOutcome maps a worker error (or nil) onto the job's terminal
// outcome. Cancellation is a deliberate state, never a failure, even
// though the engine typically exits non-zero after termination.
func classifyOutcome(job Job, err error) Outcome {
	if err == nil {
		return Outcome{
			Status:     StatusSucceeded,
			OutputPath: job.OutputPath,
			Detail:     fmt.Sprintf("completed: %s", job.OutputPath),
		}
	}
	if errors.Is(err, services.ErrCancelled) {
		return Outcome{Status: StatusCancelled, Detail: "cancelled by user"}
	}

	outcome := Outcome{Status: StatusFailed, Kind: KindUnexpected, Detail: err.Error()}
	switch {
	case errors.Is(err, services.ErrToolNotFound):
		outcome.Kind = KindToolNotFound
	case errors.Is(err, services.ErrInputMissing):
		outcome.Kind = KindInputMissing
	case errors.Is(err, services.ErrInputEmpty):
		outcome.Kind = KindInputEmpty
	case errors.Is(err, services.ErrInputCorrupted):
		outcome.Kind = KindInputCorrupted
	case errors.Is(err, services.ErrDiskSpace):
		outcome.Kind = KindInsufficientDiskSpace
	case errors.Is(err, services.ErrEngineFailure):
		outcome.Kind = KindEngineFailure
		if code, ok := services.ExitCode(err); ok {
			outcome.ExitCode = code
		}
	}
	return outcome
}
