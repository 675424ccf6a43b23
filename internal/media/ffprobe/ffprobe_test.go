package ffprobe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vidpress/internal/media/ffprobe"
)

func TestDurationSecondsParsesProbeOutput(t *testing.T) {
	client := ffprobe.NewClient("ffprobe", 0, 0, ffprobe.WithRunner(
		func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			return []byte("5.000000\n"), nil
		}))

	if got := client.DurationSeconds(context.Background(), "clip.mkv"); got != 5.0 {
		t.Fatalf("expected 5.0, got %v", got)
	}
}

func TestDurationSecondsDegradesToZero(t *testing.T) {
	cases := []struct {
		name   string
		output string
		err    error
	}{
		{name: "non-numeric", output: "N/A"},
		{name: "empty", output: ""},
		{name: "negative", output: "-3"},
		{name: "probe failure", err: errors.New("exit status 1")},
	}
	for _, tc := range cases {
		client := ffprobe.NewClient("ffprobe", 0, 0, ffprobe.WithRunner(
			func(ctx context.Context, binary string, args ...string) ([]byte, error) {
				return []byte(tc.output), tc.err
			}))
		if got := client.DurationSeconds(context.Background(), "clip.mkv"); got != 0 {
			t.Fatalf("%s: expected 0, got %v", tc.name, got)
		}
	}
}

func TestFirstVideoCodecType(t *testing.T) {
	client := ffprobe.NewClient("ffprobe", 0, 0, ffprobe.WithRunner(
		func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			return []byte("video\n"), nil
		}))

	codecType, err := client.FirstVideoCodecType(context.Background(), "clip.mkv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codecType != "video" {
		t.Fatalf("expected video, got %q", codecType)
	}
}

func TestFirstVideoCodecTypeTimeout(t *testing.T) {
	client := ffprobe.NewClient("ffprobe", 50*time.Millisecond, 0, ffprobe.WithRunner(
		func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}))

	_, err := client.FirstVideoCodecType(context.Background(), "clip.mkv")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestInspectDecodesJSON(t *testing.T) {
	payload := `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio"}],"format":{"duration":"123.45","size":"1000"}}`
	client := ffprobe.NewClient("", 0, 0, ffprobe.WithRunner(
		func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			return []byte(payload), nil
		}))

	result, err := client.Inspect(context.Background(), "clip.mkv")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	client := ffprobe.NewClient("ffprobe", 0, 0)
	if _, err := client.Inspect(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
