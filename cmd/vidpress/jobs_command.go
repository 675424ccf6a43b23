package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidpress/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Job history utilities",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))

	return jobsCmd
}

func (c *commandContext) withStore(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.OpenStore(cfg.Paths.StateDir)
	if err != nil {
		return fmt.Errorf("open job history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				records, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No jobs recorded yet")
					return nil
				}

				title := cases.Title(language.Und)
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						shortID(record.ID),
						title.String(string(record.Mode)),
						record.InputPath,
						title.String(record.Status),
						strconv.Itoa(record.Percent) + "%",
						record.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Mode", "Input", "Status", "Progress", "Started"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				record, err := store.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", record.ID)
				fmt.Fprintf(out, "Mode:      %s\n", record.Mode)
				if record.Tier != "" {
					fmt.Fprintf(out, "Quality:   %s\n", record.Tier)
				}
				fmt.Fprintf(out, "Input:     %s\n", record.InputPath)
				fmt.Fprintf(out, "Output:    %s\n", record.OutputPath)
				fmt.Fprintf(out, "Status:    %s\n", record.Status)
				fmt.Fprintf(out, "Progress:  %d%%\n", record.Percent)
				if record.Kind != "" {
					fmt.Fprintf(out, "Error:     %s\n", record.Kind)
				}
				if record.ExitCode != 0 {
					fmt.Fprintf(out, "Exit code: %d\n", record.ExitCode)
				}
				if record.Detail != "" {
					fmt.Fprintf(out, "Detail:    %s\n", record.Detail)
				}
				fmt.Fprintf(out, "Started:   %s\n", record.CreatedAt.Local().Format(time.RFC1123))
				if !record.FinishedAt.IsZero() {
					fmt.Fprintf(out, "Finished:  %s\n", record.FinishedAt.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished job(s)\n", removed)
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
