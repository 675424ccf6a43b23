package ffmpeg

import "strings"

// Mode selects what a job does with the input.
type Mode string

const (
	// ModeConvert repackages the container without re-encoding.
	ModeConvert Mode = "convert"
	// ModeCompress re-encodes the streams at a selected quality tier.
	ModeCompress Mode = "compress"
)

// ParseMode maps a textual mode to a Mode.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeConvert):
		return ModeConvert, true
	case string(ModeCompress):
		return ModeCompress, true
	}
	return "", false
}

// Tier names a compression quality/speed tradeoff. Tiers are meaningful
// only in compress mode.
type Tier string

const (
	TierHigh       Tier = "high"
	TierBalanced   Tier = "balanced"
	TierCompressed Tier = "compressed"
	TierExtreme    Tier = "extreme"
)

// ParseTier maps a textual tier to a Tier.
func ParseTier(value string) (Tier, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(TierHigh):
		return TierHigh, true
	case string(TierBalanced):
		return TierBalanced, true
	case string(TierCompressed):
		return TierCompressed, true
	case string(TierExtreme):
		return TierExtreme, true
	}
	return "", false
}

// Tiers lists the known quality tiers in descending quality order.
func Tiers() []Tier {
	return []Tier{TierHigh, TierBalanced, TierCompressed, TierExtreme}
}

// QualityPreset holds the encoding parameters for a quality tier.
type QualityPreset struct {
	CRF          string
	SpeedPreset  string
	AudioBitrate string
}

var qualityPresets = map[Tier]QualityPreset{
	TierHigh:       {CRF: "18", SpeedPreset: "slow", AudioBitrate: "192k"},
	TierBalanced:   {CRF: "23", SpeedPreset: "medium", AudioBitrate: "128k"},
	TierCompressed: {CRF: "28", SpeedPreset: "fast", AudioBitrate: "96k"},
	TierExtreme:    {CRF: "32", SpeedPreset: "veryfast", AudioBitrate: "64k"},
}

// PresetFor returns the quality preset for a tier, falling back to the
// balanced preset for unknown tiers.
func PresetFor(tier Tier) QualityPreset {
	if preset, ok := qualityPresets[tier]; ok {
		return preset
	}
	return qualityPresets[TierBalanced]
}
