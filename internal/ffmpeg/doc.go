// Package ffmpeg drives the external transcoding engine: it synthesizes
// invocation arguments from immutable quality and codec tables, parses the
// engine's diagnostic stream for progress markers, and supervises the
// engine process through spawn, streaming, and cancellation escalation.
//
// The package never decodes or encodes media itself; it manages only the
// control plane around the engine.
package ffmpeg
