// Package diskspace estimates whether the output volume has room for a
// transcode before the engine starts. The guard is deliberately advisory:
// a platform that cannot report free space never blocks a job.
package diskspace
