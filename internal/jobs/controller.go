package jobs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidpress/internal/config"
	"vidpress/internal/diskspace"
	"vidpress/internal/ffmpeg"
	"vidpress/internal/logging"
	"vidpress/internal/media/ffprobe"
	"vidpress/internal/preflight"
	"vidpress/internal/services"
)

// eventBuffer holds a full progress sequence (at most one event per
// percentage point) plus the outcome, so the worker never blocks on a
// slow consumer.
const eventBuffer = 128

// inputChecker validates tools and input files before a job runs.
type inputChecker interface {
	CheckTools(ctx context.Context) error
	ValidateInput(ctx context.Context, path string) error
}

// durationProber reports total media duration in seconds, 0 when unknown.
type durationProber interface {
	DurationSeconds(ctx context.Context, path string) float64
}

// spaceGuard checks free space on the output volume.
type spaceGuard interface {
	Check(outputPath string, requiredBytes int64) error
}

// EngineSupervisor runs one engine invocation and supports cooperative
// cancellation.
type EngineSupervisor interface {
	Run(ctx context.Context, args []string, onLine func(string)) error
	Cancel()
}

// Controller is the façade the presentation layer talks to: it validates,
// probes, builds the engine command, supervises execution, and reports a
// terminal outcome per job. Each started job runs on its own worker
// goroutine with no shared mutable state between jobs.
type Controller struct {
	cfg           *config.Config
	logger        *slog.Logger
	checker       inputChecker
	prober        durationProber
	guard         spaceGuard
	newSupervisor func() EngineSupervisor
	store         *Store
}

// Option configures the controller.
type Option func(*Controller)

// WithChecker injects a preflight checker (primarily for tests).
func WithChecker(checker inputChecker) Option {
	return func(c *Controller) {
		if checker != nil {
			c.checker = checker
		}
	}
}

// WithProber injects a duration prober (primarily for tests).
func WithProber(prober durationProber) Option {
	return func(c *Controller) {
		if prober != nil {
			c.prober = prober
		}
	}
}

// WithGuard injects a disk space guard (primarily for tests).
func WithGuard(guard spaceGuard) Option {
	return func(c *Controller) {
		if guard != nil {
			c.guard = guard
		}
	}
}

// WithSupervisorFactory injects the engine supervisor constructor
// (primarily for tests).
func WithSupervisorFactory(factory func() EngineSupervisor) Option {
	return func(c *Controller) {
		if factory != nil {
			c.newSupervisor = factory
		}
	}
}

// WithStore attaches a job history store. Without one the controller is
// fully stateless.
func WithStore(store *Store) Option {
	return func(c *Controller) {
		c.store = store
	}
}

// NewController wires a controller from configuration.
func NewController(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	prober := ffprobe.NewClient(
		cfg.FFmpeg.FFprobeBinary,
		time.Duration(cfg.FFmpeg.StreamCheckTimeout)*time.Second,
		time.Duration(cfg.FFmpeg.DurationProbeTimeout)*time.Second,
	)
	grace := time.Duration(cfg.FFmpeg.CancelGracePeriod) * time.Second
	ctrl := &Controller{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "jobs"),
		checker: preflight.NewChecker(cfg, prober),
		prober:  prober,
		guard:   diskspace.NewGuard(logger),
		newSupervisor: func() EngineSupervisor {
			return ffmpeg.NewSupervisor(cfg.FFmpeg.FFmpegBinary, grace, logger)
		},
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Handle identifies a started job and carries its event stream.
type Handle struct {
	job    Job
	events chan Event
	sup    EngineSupervisor
}

// ID returns the job identifier.
func (h *Handle) ID() string { return h.job.ID }

// Job returns the immutable job description.
func (h *Handle) Job() Job { return h.job }

// Events returns the job's event stream. Progress percentages arrive in
// non-decreasing order; the terminal outcome is the last event before the
// channel closes.
func (h *Handle) Events() <-chan Event { return h.events }

// Cancel requests cooperative cancellation of the job. Repeated calls are
// no-ops.
func (h *Handle) Cancel() { h.sup.Cancel() }

// Start validates the request shape, normalizes paths, and launches the
// job on its own worker goroutine. Validation and probing failures after
// this point surface as Failed outcomes on the event stream, never as
// panics or lost errors.
func (c *Controller) Start(ctx context.Context, inputPath, outputPath string, mode ffmpeg.Mode, tier ffmpeg.Tier) (*Handle, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, errors.New("input path required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, errors.New("output path required")
	}

	input, err := filepath.Abs(filepath.Clean(inputPath))
	if err != nil {
		return nil, err
	}
	output, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return nil, err
	}
	output = forceOutputExtension(input, output, mode)

	job := Job{
		ID:         uuid.NewString(),
		InputPath:  input,
		OutputPath: output,
		Mode:       mode,
		Tier:       tier,
		CreatedAt:  time.Now().UTC(),
	}
	handle := &Handle{
		job:    job,
		events: make(chan Event, eventBuffer),
		sup:    c.newSupervisor(),
	}

	if c.store != nil {
		if err := c.store.RecordStart(ctx, job); err != nil {
			c.logger.Warn("failed to record job start", logging.Error(err))
		}
	}

	go c.run(ctx, handle)
	return handle, nil
}

// forceOutputExtension applies the container policy: convert always
// targets the canonical container, compress keeps the input's container.
func forceOutputExtension(input, output string, mode ffmpeg.Mode) string {
	var ext string
	switch mode {
	case ffmpeg.ModeConvert:
		ext = ffmpeg.CanonicalExtension
	case ffmpeg.ModeCompress:
		ext = strings.ToLower(filepath.Ext(input))
	}
	if ext == "" {
		return output
	}
	current := filepath.Ext(output)
	return strings.TrimSuffix(output, current) + ext
}

func (c *Controller) run(ctx context.Context, h *Handle) {
	ctx = services.WithJobID(ctx, h.job.ID)
	logger := logging.WithContext(ctx, c.logger).With(
		logging.String(logging.FieldInput, h.job.InputPath),
		logging.String(logging.FieldOutput, h.job.OutputPath),
	)

	err := c.execute(ctx, h, logger)
	outcome := classifyOutcome(h.job, err)

	switch outcome.Status {
	case StatusSucceeded:
		logger.Info("job succeeded")
	case StatusCancelled:
		logger.Info("job cancelled")
	default:
		logger.Error("job failed",
			logging.String("kind", string(outcome.Kind)),
			logging.String("detail", outcome.Detail))
	}

	if c.store != nil {
		if err := c.store.RecordOutcome(context.WithoutCancel(ctx), h.job.ID, outcome); err != nil {
			logger.Warn("failed to record job outcome", logging.Error(err))
		}
	}

	h.events <- Event{Outcome: &outcome}
	close(h.events)
}

func (c *Controller) execute(ctx context.Context, h *Handle, logger *slog.Logger) error {
	job := h.job

	if err := c.checker.CheckTools(ctx); err != nil {
		return err
	}
	if err := c.checker.ValidateInput(ctx, job.InputPath); err != nil {
		return err
	}
	if detail, bad := preflight.ProblematicFilename(filepath.Base(job.InputPath)); bad {
		logger.Warn("input file name may upset the engine", logging.String("reason", detail))
	}

	if c.cfg.Jobs.DiskCheckEnabled {
		if info, err := os.Stat(job.InputPath); err == nil {
			required := info.Size() * diskspace.EstimateMultiplier
			if err := c.guard.Check(job.OutputPath, required); err != nil {
				return err
			}
		}
	}

	total := c.prober.DurationSeconds(ctx, job.InputPath)
	if total <= 0 {
		logger.Warn("media duration unknown, progress reporting disabled")
	}

	ctx = services.WithStage(ctx, "engine")
	logger = logger.With(logging.String(logging.FieldStage, "engine"))

	args := ffmpeg.BuildArgs(job.InputPath, job.OutputPath, job.Mode, job.Tier)
	logger.Debug("engine command built",
		logging.String("command", ffmpeg.CommandString(c.cfg.FFmpeg.FFmpegBinary, args)))

	parser := ffmpeg.NewProgressParser(total)
	last := -1
	err := h.sup.Run(ctx, args, func(line string) {
		percent, ok := parser.Parse(line)
		if !ok || percent <= last {
			return
		}
		last = percent
		h.events <- Event{Percent: percent}
		if c.store != nil {
			if err := c.store.UpdateProgress(ctx, job.ID, percent); err != nil {
				logger.Debug("failed to persist progress", logging.Error(err))
			}
		}
	})
	if err != nil {
		return err
	}
	if last < 100 {
		h.events <- Event{Percent: 100}
	}
	return nil
}
