// Package preflight validates everything a job needs before the engine is
// spawned: tool availability, input existence and stream validity, plus
// the environment checks surfaced by the status command. Every validation
// failure carries a classified error so the job controller can report a
// specific failure kind without running a conversion.
package preflight
