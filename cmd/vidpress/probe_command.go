package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidpress/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <input>",
		Short: "Inspect a media file's container and streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := ffprobe.NewClient(
				cfg.FFmpeg.FFprobeBinary,
				time.Duration(cfg.FFmpeg.StreamCheckTimeout)*time.Second,
				time.Duration(cfg.FFmpeg.DurationProbeTimeout)*time.Second,
			)
			result, err := client.Inspect(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("probe %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:     %s\n", result.Format.Filename)
			fmt.Fprintf(out, "Format:   %s\n", result.Format.FormatName)
			fmt.Fprintf(out, "Duration: %s\n", formatSeconds(result.DurationSeconds()))
			if size := result.SizeBytes(); size > 0 {
				fmt.Fprintf(out, "Size:     %s\n", humanize.IBytes(uint64(size)))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderStreamTable(result.Streams))
			return nil
		},
	}
}

func renderStreamTable(streams []ffprobe.Stream) string {
	title := cases.Title(language.Und)
	rows := make([][]string, 0, len(streams))
	for _, stream := range streams {
		detail := ""
		switch stream.CodecType {
		case "video":
			if stream.Width > 0 && stream.Height > 0 {
				detail = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
			}
		case "audio":
			if stream.Channels > 0 {
				detail = fmt.Sprintf("%d ch", stream.Channels)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(stream.Index),
			title.String(stream.CodecType),
			stream.CodecName,
			detail,
		})
	}
	return renderTable(
		[]string{"#", "Type", "Codec", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
