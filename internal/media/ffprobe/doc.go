// Package ffprobe wraps the external probing tool used to inspect media
// files without transcoding them: full JSON inspections, the single-field
// duration query, and the first-video-stream validity check. All
// invocations carry bounded timeouts so a misbehaving tool cannot stall a
// job.
package ffprobe
