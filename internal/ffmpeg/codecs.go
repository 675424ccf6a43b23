package ffmpeg

import (
	"path/filepath"
	"strings"
)

// CodecProfile maps an output container to the codecs the engine should
// use. A non-empty QScale marks a legacy container whose video quality is
// driven by a quality scale instead of a constant rate factor.
type CodecProfile struct {
	VideoCodec string
	AudioCodec string
	QScale     string
}

// CanonicalExtension is the container convert mode always targets.
const CanonicalExtension = ".mp4"

var codecProfiles = map[string]CodecProfile{
	".mp4":  {VideoCodec: "libx264", AudioCodec: "aac"},
	".webm": {VideoCodec: "libvpx-vp9", AudioCodec: "libopus"},
	".mov":  {VideoCodec: "libx264", AudioCodec: "aac"},
	".mkv":  {VideoCodec: "libx264", AudioCodec: "aac"},
	".avi":  {VideoCodec: "mpeg4", AudioCodec: "mp3", QScale: "5"},
}

// ProfileFor returns the codec profile registered for the output path's
// extension, falling back to the canonical MP4 profile when the extension
// is unrecognized. Lookup is case-insensitive.
func ProfileFor(outputPath string) CodecProfile {
	ext := strings.ToLower(filepath.Ext(outputPath))
	if profile, ok := codecProfiles[ext]; ok {
		return profile
	}
	return codecProfiles[CanonicalExtension]
}

// KnownExtensions lists the container extensions with registered profiles.
func KnownExtensions() []string {
	return []string{".mp4", ".webm", ".mov", ".mkv", ".avi"}
}
