package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

// timeMarker matches the elapsed-time marker the engine writes to its
// diagnostic stream, e.g. "time=00:01:23.450000".
var timeMarker = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)

// ProgressParser converts engine diagnostic lines into completion
// percentages. It is stateless per line beyond the fixed total duration:
// raw values are clamped to [0, 100], never smoothed or reordered.
type ProgressParser struct {
	totalSeconds float64
}

// NewProgressParser constructs a parser for a job whose media runs
// totalSeconds long. A total of 0 means the duration is unknown and the
// parser will never report progress.
func NewProgressParser(totalSeconds float64) *ProgressParser {
	return &ProgressParser{totalSeconds: totalSeconds}
}

// Parse scans one diagnostic line for a time marker and converts it to a
// percentage of the total duration. The boolean is false when the line
// carries no marker, the marker is malformed, or the total duration is
// unknown.
func (p *ProgressParser) Parse(line string) (int, bool) {
	if p.totalSeconds <= 0 {
		return 0, false
	}
	match := timeMarker.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	elapsed, ok := elapsedSeconds(match[1], match[2], match[3])
	if !ok {
		return 0, false
	}
	percent := int(elapsed / p.totalSeconds * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

func elapsedSeconds(hours, minutes, seconds string) (float64, bool) {
	h, err := strconv.ParseFloat(hours, 64)
	if err != nil {
		return 0, false
	}
	m, err := strconv.ParseFloat(minutes, 64)
	if err != nil {
		return 0, false
	}
	s, err := strconv.ParseFloat(strings.TrimSpace(seconds), 64)
	if err != nil {
		return 0, false
	}
	return h*3600 + m*60 + s, true
}
