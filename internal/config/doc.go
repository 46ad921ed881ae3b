// SPDX-License-Identifier: MPL-2.0

// Package config handles project and session configuration.
//
// Project configuration uses Viper with CUE as the file format: ama.cue at
// the project root layered over an optional global file in the ama config
// directory (~/.config/ama on Linux, ~/Library/Application Support/ama on
// macOS, %APPDATA%\ama on Windows). User files are validated against a CUE
// schema (config_schema.cue) for type safety and clear error positions.
//
// Session configuration (project URL and access token, written by 'ama use')
// is a TOML file in the same config directory.
package config
