package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"vidpress/internal/logging"
	"vidpress/internal/services"
)

// State tracks a supervised engine invocation through its lifetime.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateCancelling State = "cancelling"
	StateCancelled  State = "cancelled"
)

// Process represents a live engine invocation.
type Process interface {
	// Diagnostics exposes the engine's diagnostic output stream.
	Diagnostics() io.Reader
	// Terminate requests a graceful shutdown.
	Terminate() error
	// Kill forcibly ends the process.
	Kill() error
	// Wait blocks until exit and reports the exit code. The error covers
	// wait machinery failures, not non-zero exits.
	Wait() (int, error)
}

// Starter launches the engine process. Injectable for tests.
type Starter func(ctx context.Context, binary string, args []string) (Process, error)

// Supervisor owns one engine invocation for one job: it spawns the
// process, streams its diagnostic output line by line, and implements
// cooperative cancellation with graceful-then-forced termination. A
// Supervisor is single-use; construct a fresh one per job.
type Supervisor struct {
	binary string
	grace  time.Duration
	start  Starter
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	cancel     chan struct{}
	cancelOnce sync.Once
}

// SupervisorOption configures the supervisor.
type SupervisorOption func(*Supervisor)

// WithStarter injects a custom process starter (primarily for tests).
func WithStarter(start Starter) SupervisorOption {
	return func(s *Supervisor) {
		if start != nil {
			s.start = start
		}
	}
}

// NewSupervisor constructs a supervisor for one engine invocation. The
// grace duration bounds how long a cancelled process may linger between
// the graceful termination request and the forced kill.
func NewSupervisor(binary string, grace time.Duration, logger *slog.Logger, opts ...SupervisorOption) *Supervisor {
	if grace <= 0 {
		grace = 5 * time.Second
	}
	sup := &Supervisor{
		binary: binary,
		grace:  grace,
		start:  startEngineProcess,
		logger: logging.NewComponentLogger(logger, "supervisor"),
		state:  StateIdle,
		cancel: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sup)
	}
	return sup
}

// State reports the supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Cancel requests cooperative cancellation. It is safe to call from any
// goroutine; calls after the first are no-ops.
func (s *Supervisor) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.cancel)
	})
}

func (s *Supervisor) cancelRequested() bool {
	select {
	case <-s.cancel:
		return true
	default:
		return false
	}
}

// Run spawns the engine and blocks until it exits. Every diagnostic line
// is forwarded to onLine until cancellation begins. The returned error is
// nil on a clean exit, tagged ErrCancelled after a cancel request, and
// tagged ErrEngineFailure (carrying the exit code) on an abnormal exit.
func (s *Supervisor) Run(ctx context.Context, args []string, onLine func(string)) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return services.Wrap(services.ErrUnexpected, "supervisor", "run", fmt.Sprintf("supervisor already used (state %s)", state), nil)
	}
	if s.cancelRequested() {
		s.state = StateCancelled
		s.mu.Unlock()
		return services.Wrap(services.ErrCancelled, "supervisor", "run", "cancelled before start", nil)
	}
	s.state = StateRunning
	s.mu.Unlock()

	proc, err := s.start(ctx, s.binary, args)
	if err != nil {
		s.setState(StateFailed)
		return services.Wrap(services.ErrUnexpected, "supervisor", "start", "spawn engine process", err)
	}

	done := make(chan struct{})
	var escalation sync.WaitGroup
	escalation.Add(1)
	go func() {
		defer escalation.Done()
		select {
		case <-s.cancel:
			s.setState(StateCancelling)
			s.logger.Info("terminating engine process")
			if err := proc.Terminate(); err != nil {
				s.logger.Debug("graceful termination request failed", logging.Error(err))
			}
			select {
			case <-done:
			case <-time.After(s.grace):
				s.logger.Warn("engine ignored termination request, killing",
					logging.Duration("grace", s.grace))
				if err := proc.Kill(); err != nil {
					s.logger.Debug("kill failed", logging.Error(err))
				}
			}
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(proc.Diagnostics())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanDiagnosticLines)
	for scanner.Scan() {
		if s.cancelRequested() {
			continue
		}
		if onLine != nil {
			onLine(scanner.Text())
		}
	}

	code, waitErr := proc.Wait()
	close(done)
	escalation.Wait()

	if s.cancelRequested() {
		s.setState(StateCancelled)
		return services.Wrap(services.ErrCancelled, "supervisor", "run", "cancelled by caller", nil)
	}
	if waitErr != nil {
		s.setState(StateFailed)
		return services.Wrap(services.ErrUnexpected, "supervisor", "wait", "await engine exit", waitErr)
	}
	if code != 0 {
		s.setState(StateFailed)
		return services.Wrap(services.ErrEngineFailure, "supervisor", "run", "engine exited abnormally", &services.ExitCodeError{Code: code})
	}
	s.setState(StateSucceeded)
	return nil
}

// scanDiagnosticLines splits on \n or \r so the engine's carriage-return
// progress updates surface as individual lines.
func scanDiagnosticLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

type engineProcess struct {
	cmd         *exec.Cmd
	diagnostics io.ReadCloser
}

func startEngineProcess(ctx context.Context, binary string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	return &engineProcess{cmd: cmd, diagnostics: stderr}, nil
}

func (p *engineProcess) Diagnostics() io.Reader { return p.diagnostics }

func (p *engineProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *engineProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *engineProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
