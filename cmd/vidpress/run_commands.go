package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vidpress/internal/ffmpeg"
	"vidpress/internal/jobs"
	"vidpress/internal/logging"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Remux a video into the standard container without re-encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscode(ctx, cmd, args[0], outputFlag, ffmpeg.ModeConvert, "")
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path (defaults next to the input)")
	return cmd
}

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var qualityFlag string

	cmd := &cobra.Command{
		Use:   "compress <input>",
		Short: "Re-encode a video at a chosen quality tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscode(ctx, cmd, args[0], outputFlag, ffmpeg.ModeCompress, qualityFlag)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path (defaults next to the input)")
	cmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Quality tier: "+tierList())
	return cmd
}

func tierList() string {
	tiers := ffmpeg.Tiers()
	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, string(tier))
	}
	return strings.Join(names, ", ")
}

func runTranscode(ctx *commandContext, cmd *cobra.Command, input, output string, mode ffmpeg.Mode, quality string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.ensureLogger()

	tier := ffmpeg.TierBalanced
	qualityValue := strings.TrimSpace(quality)
	if qualityValue == "" {
		qualityValue = cfg.Jobs.DefaultQuality
	}
	if qualityValue != "" {
		parsed, ok := ffmpeg.ParseTier(qualityValue)
		if !ok {
			return fmt.Errorf("unknown quality %q (choose one of: %s)", qualityValue, tierList())
		}
		tier = parsed
	}

	if strings.TrimSpace(output) == "" {
		output = defaultOutputPath(input, mode)
	}

	options := []jobs.Option{}
	store, err := jobs.OpenStore(cfg.Paths.StateDir)
	if err != nil {
		logger.Warn("job history unavailable, running without it", logging.Error(err))
	} else {
		defer store.Close()
		defer func() {
			if err := store.Prune(context.Background(), cfg.Jobs.HistoryLimit); err != nil {
				logger.Warn("failed to prune job history", logging.Error(err))
			}
		}()
		options = append(options, jobs.WithStore(store))
	}

	controller := jobs.NewController(cfg, logger, options...)
	handle, err := controller.Start(cmd.Context(), input, output, mode, tier)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			fmt.Fprintln(cmd.ErrOrStderr(), "stopping, waiting for the engine to exit...")
			handle.Cancel()
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s -> %s\n", handle.Job().InputPath, handle.Job().OutputPath)

	reporter := newProgressReporter(out, string(mode))
	var outcome *jobs.Outcome
	for event := range handle.Events() {
		if event.Outcome != nil {
			outcome = event.Outcome
			continue
		}
		reporter.update(event.Percent)
	}
	reporter.finish()

	if outcome == nil {
		return fmt.Errorf("job %s ended without an outcome", handle.ID())
	}
	return renderOutcome(out, *outcome)
}

func renderOutcome(out io.Writer, outcome jobs.Outcome) error {
	switch outcome.Status {
	case jobs.StatusSucceeded:
		fmt.Fprintf(out, "Done: %s\n", outcome.OutputPath)
		return nil
	case jobs.StatusCancelled:
		fmt.Fprintln(out, "Cancelled")
		return nil
	default:
		if outcome.ExitCode != 0 {
			return fmt.Errorf("%s (engine exit code %d)", outcome.Detail, outcome.ExitCode)
		}
		return fmt.Errorf("%s", outcome.Detail)
	}
}

// defaultOutputPath places the output next to the input with a mode
// suffix. The controller still applies the container policy, so the
// extension here is only a starting point.
func defaultOutputPath(input string, mode ffmpeg.Mode) string {
	ext := ffmpeg.CanonicalExtension
	base := strings.TrimSuffix(input, extOf(input))
	switch mode {
	case ffmpeg.ModeCompress:
		ext = extOf(input)
		return base + "_compressed" + ext
	default:
		return base + "_converted" + ext
	}
}

func extOf(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 && !strings.ContainsAny(path[idx:], "/\\") {
		return path[idx:]
	}
	return ""
}

// progressReporter renders a live bar on terminals and falls back to
// stepped plain lines when output is redirected.
type progressReporter struct {
	bar      *progressbar.ProgressBar
	out      io.Writer
	last     int
	plain    bool
	finished bool
}

func newProgressReporter(out io.Writer, label string) *progressReporter {
	if !shouldColorize(out) {
		return &progressReporter{out: out, plain: true, last: -1}
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReporter{bar: bar, last: -1}
}

func (p *progressReporter) update(percent int) {
	if percent <= p.last {
		return
	}
	p.last = percent
	if p.plain {
		// Keep redirected output readable: one line per 10% step.
		if percent%10 == 0 || percent == 100 {
			fmt.Fprintf(p.out, "progress: %d%%\n", percent)
		}
		return
	}
	_ = p.bar.Set(percent)
}

func (p *progressReporter) finish() {
	if p.finished || p.bar == nil {
		return
	}
	p.finished = true
	_ = p.bar.Finish()
}
