// Package config loads, normalizes, and validates vidpress configuration.
//
// Configuration lives in a TOML file (default ~/.config/vidpress/config.toml,
// falling back to ./vidpress.toml). Load applies defaults for missing keys,
// expands ~ in path values, and rejects unusable settings before any
// component sees the config.
package config
