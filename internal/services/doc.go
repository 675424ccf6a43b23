// Package services defines shared utilities consumed by the job pipeline
// stages and external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that translate stage
//     failures into a consistent outcome classification.
//   - The ExitCodeError carrier that preserves engine exit codes through
//     error chains.
//   - Context helpers that stamp job IDs and stage names for logging.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
