package config

const (
	defaultLogDir               = "~/.local/share/vidpress/logs"
	defaultStateDir             = "~/.local/share/vidpress/state"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultStreamCheckTimeout   = 10
	defaultDurationProbeTimeout = 30
	defaultCancelGracePeriod    = 5
	defaultQuality              = "balanced"
	defaultHistoryLimit         = 200
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			StreamCheckTimeout:   defaultStreamCheckTimeout,
			DurationProbeTimeout: defaultDurationProbeTimeout,
			CancelGracePeriod:    defaultCancelGracePeriod,
		},
		Jobs: Jobs{
			DefaultQuality:   defaultQuality,
			DiskCheckEnabled: true,
			HistoryLimit:     defaultHistoryLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
