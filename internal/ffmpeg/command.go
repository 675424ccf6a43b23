package ffmpeg

import "strings"

// BuildArgs synthesizes the argument list for one engine invocation. It is
// a pure function of its inputs; the final argument is always the explicit
// overwrite flag.
//
// Convert mode repackages the container with both codecs passed through,
// so no quality parameter ever appears. Compress mode selects codecs from
// the output extension's profile: qscale-based profiles emit a quality
// scale, all others emit the tier's constant rate factor plus its speed
// preset when one is set.
func BuildArgs(inputPath, outputPath string, mode Mode, tier Tier) []string {
	if mode == ModeConvert {
		return []string{
			"-i", inputPath,
			"-c:v", "copy", "-c:a", "copy",
			outputPath, "-y",
		}
	}

	preset := PresetFor(tier)
	profile := ProfileFor(outputPath)

	args := []string{"-i", inputPath}
	if profile.QScale != "" {
		args = append(args, "-c:v", profile.VideoCodec, "-qscale:v", profile.QScale)
	} else {
		args = append(args, "-c:v", profile.VideoCodec, "-crf", preset.CRF)
		if preset.SpeedPreset != "" {
			args = append(args, "-preset", preset.SpeedPreset)
		}
	}
	args = append(args,
		"-c:a", profile.AudioCodec, "-b:a", preset.AudioBitrate,
		outputPath, "-y",
	)
	return args
}

// CommandString renders a binary plus argument list as a copy-pasteable
// shell command. Arguments are individually quoted so paths with spaces or
// shell metacharacters survive any invoking shell; the process itself is
// always spawned without a shell, with arguments passed verbatim.
func CommandString(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuoteArg(binary))
	for _, arg := range args {
		parts = append(parts, QuoteArg(arg))
	}
	return strings.Join(parts, " ")
}

// QuoteArg wraps an argument in POSIX single quotes when it contains
// anything a shell could interpret.
func QuoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'`$&|;<>()*?[]#~%{}\\!") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
