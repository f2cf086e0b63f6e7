// SPDX-License-Identifier: MPL-2.0

// Package config handles conu configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/conu/config.cue (or the XDG
// equivalent on Linux, ~/Library/Application Support/conu/config.cue on macOS,
// %APPDATA%\conu\config.cue on Windows), or from an explicit --config path.
// Environment variables prefixed with CONU_ override file values, for example
// CONU_PROBE_TIMEOUT=30s.
//
// Files are validated against the embedded CUE schema (config_schema.cue).
package config
