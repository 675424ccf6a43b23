// Package logging assembles the structured slog loggers used across
// vidpress components.
//
// It centralizes level and output plumbing, exposes attr helper aliases so
// call sites stay terse, and provides a no-op logger for tests and wiring
// code that cannot fail. Prefer these constructors over hand-rolled slog
// setup so components emit data with the same shape.
package logging
