// Package jobs coordinates transcode jobs end to end: preflight checks,
// duration probing, disk space guarding, engine supervision, and outcome
// classification. The Controller is the single entry point for the
// presentation layer; each started job runs on its own goroutine and
// reports through a buffered event stream that always ends with exactly
// one terminal outcome.
package jobs
