// Package deps verifies the availability of the external tools vidpress
// drives (the FFmpeg engine and the FFprobe probing tool) by running their
// version queries with a bounded timeout.
package deps
