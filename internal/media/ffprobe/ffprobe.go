package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	BitRate   string `json:"bit_rate"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Runner abstracts ffprobe execution for testability. It returns the tool's
// primary output stream.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func runProbe(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return output, nil
}

// Client wraps ffprobe invocations with the configured binary and timeouts.
type Client struct {
	binary          string
	streamTimeout   time.Duration
	durationTimeout time.Duration
	run             Runner
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom probe runner (primarily for tests).
func WithRunner(run Runner) Option {
	return func(c *Client) {
		if run != nil {
			c.run = run
		}
	}
}

// NewClient constructs an ffprobe client. Zero timeouts fall back to the
// bounds the rest of the pipeline assumes (10s stream check, 30s duration).
func NewClient(binary string, streamTimeout, durationTimeout time.Duration, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if streamTimeout <= 0 {
		streamTimeout = 10 * time.Second
	}
	if durationTimeout <= 0 {
		durationTimeout = 30 * time.Second
	}
	client := &Client{
		binary:          binary,
		streamTimeout:   streamTimeout,
		durationTimeout: durationTimeout,
		run:             runProbe,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Inspect executes a full ffprobe inspection and decodes the JSON response.
func (c *Client) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	inspectCtx, cancel := context.WithTimeout(ctx, c.durationTimeout)
	defer cancel()

	output, err := c.run(inspectCtx, c.binary,
		"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// DurationSeconds queries only the container duration. Any failure (timeout,
// non-zero exit, unparsable output) degrades to 0, signaling unknown
// duration; callers treat that as "proceed without percentage progress".
func (c *Client) DurationSeconds(ctx context.Context, path string) float64 {
	probeCtx, cancel := context.WithTimeout(ctx, c.durationTimeout)
	defer cancel()

	output, err := c.run(probeCtx, c.binary,
		"-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", "--", path)
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return seconds
}

// FirstVideoCodecType queries the codec type of the first video stream.
// An empty result means the container holds no decodable video.
func (c *Client) FirstVideoCodecType(ctx context.Context, path string) (string, error) {
	checkCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	output, err := c.run(checkCtx, c.binary,
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=codec_type", "-of", "csv=p=0", "--", path)
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("stream check timed out after %s: %w", c.streamTimeout, err)
		}
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when
// unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if size < 0 {
		return 0
	}
	return int64(size)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
