package ffmpeg_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"vidpress/internal/ffmpeg"
	"vidpress/internal/services"
)

type fakeProcess struct {
	pr *io.PipeReader
	pw *io.PipeWriter

	mu              sync.Mutex
	terminated      bool
	killed          bool
	exitOnTerminate bool

	code   int
	exited chan struct{}
	once   sync.Once
}

func newFakeProcess(exitOnTerminate bool) *fakeProcess {
	pr, pw := io.Pipe()
	return &fakeProcess{pr: pr, pw: pw, exitOnTerminate: exitOnTerminate, exited: make(chan struct{})}
}

func (p *fakeProcess) Diagnostics() io.Reader { return p.pr }

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	exitNow := p.exitOnTerminate
	p.mu.Unlock()
	if exitNow {
		p.exit(255)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.exit(137)
	return nil
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.exited
	return p.code, nil
}

func (p *fakeProcess) exit(code int) {
	p.once.Do(func() {
		p.code = code
		p.pw.Close()
		close(p.exited)
	})
}

func (p *fakeProcess) emit(lines ...string) {
	for _, line := range lines {
		if _, err := io.WriteString(p.pw, line+"\n"); err != nil {
			return
		}
	}
}

func starterFor(proc *fakeProcess, produce func(*fakeProcess)) ffmpeg.Starter {
	return func(ctx context.Context, binary string, args []string) (ffmpeg.Process, error) {
		go produce(proc)
		return proc, nil
	}
}

func TestSupervisorStreamsLinesAndSucceeds(t *testing.T) {
	proc := newFakeProcess(false)
	sup := ffmpeg.NewSupervisor("ffmpeg", time.Second, nil, ffmpeg.WithStarter(
		starterFor(proc, func(p *fakeProcess) {
			p.emit("Stream mapping:", "time=00:00:01.000000", "time=00:00:02.000000")
			p.exit(0)
		})))

	var lines []string
	err := sup.Run(context.Background(), []string{"-i", "in.mkv", "out.mkv", "-y"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if sup.State() != ffmpeg.StateSucceeded {
		t.Fatalf("expected succeeded state, got %s", sup.State())
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 forwarded lines, got %d: %v", len(lines), lines)
	}
}

func TestSupervisorReportsEngineFailureWithExitCode(t *testing.T) {
	proc := newFakeProcess(false)
	sup := ffmpeg.NewSupervisor("ffmpeg", time.Second, nil, ffmpeg.WithStarter(
		starterFor(proc, func(p *fakeProcess) {
			p.emit("in.mkv: Invalid data found when processing input")
			p.exit(183)
		})))

	err := sup.Run(context.Background(), nil, nil)
	if !errors.Is(err, services.ErrEngineFailure) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	if code, ok := services.ExitCode(err); !ok || code != 183 {
		t.Fatalf("expected exit code 183 in chain, got %d ok=%v", code, ok)
	}
	if sup.State() != ffmpeg.StateFailed {
		t.Fatalf("expected failed state, got %s", sup.State())
	}
}

func TestSupervisorCancelGraceful(t *testing.T) {
	proc := newFakeProcess(true)
	sup := ffmpeg.NewSupervisor("ffmpeg", time.Second, nil, ffmpeg.WithStarter(
		starterFor(proc, func(p *fakeProcess) {
			p.emit("time=00:00:01.000000")
		})))

	err := sup.Run(context.Background(), nil, func(string) {
		sup.Cancel()
	})
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancelled outcome, got %v", err)
	}
	if errors.Is(err, services.ErrEngineFailure) {
		t.Fatal("cancellation must never classify as engine failure")
	}
	if sup.State() != ffmpeg.StateCancelled {
		t.Fatalf("expected cancelled state, got %s", sup.State())
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if !proc.terminated {
		t.Fatal("expected graceful termination request")
	}
	if proc.killed {
		t.Fatal("expected no forced kill when the process exits in time")
	}
}

func TestSupervisorCancelEscalatesToKill(t *testing.T) {
	proc := newFakeProcess(false) // ignores the termination request
	sup := ffmpeg.NewSupervisor("ffmpeg", 50*time.Millisecond, nil, ffmpeg.WithStarter(
		starterFor(proc, func(p *fakeProcess) {
			p.emit("time=00:00:01.000000")
		})))

	err := sup.Run(context.Background(), nil, func(string) {
		sup.Cancel()
	})
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancelled outcome, got %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if !proc.terminated || !proc.killed {
		t.Fatalf("expected escalation terminate→kill, got terminated=%v killed=%v", proc.terminated, proc.killed)
	}
}

func TestSupervisorCancelBeforeStart(t *testing.T) {
	started := false
	sup := ffmpeg.NewSupervisor("ffmpeg", time.Second, nil, ffmpeg.WithStarter(
		func(ctx context.Context, binary string, args []string) (ffmpeg.Process, error) {
			started = true
			return nil, errors.New("unreachable")
		}))

	sup.Cancel()
	sup.Cancel() // repeated cancels are no-ops

	err := sup.Run(context.Background(), nil, nil)
	if !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancelled outcome, got %v", err)
	}
	if started {
		t.Fatal("expected no process spawn after pre-start cancel")
	}
	if sup.State() != ffmpeg.StateCancelled {
		t.Fatalf("expected cancelled state, got %s", sup.State())
	}
}

func TestSupervisorIsSingleUse(t *testing.T) {
	proc := newFakeProcess(false)
	sup := ffmpeg.NewSupervisor("ffmpeg", time.Second, nil, ffmpeg.WithStarter(
		starterFor(proc, func(p *fakeProcess) {
			p.exit(0)
		})))

	if err := sup.Run(context.Background(), nil, nil); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := sup.Run(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error on supervisor reuse")
	}
}
