// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride redirects ConfigDir for tests. os.UserHomeDir ignores a
// faked HOME on some platforms (macOS in CI), so tests set this instead of
// the environment.
var configDirOverride string

// SetConfigDirOverride points ConfigDir, and with it the session file, at a
// custom directory. Tests pair it with Reset in a cleanup.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears the config directory override.
func Reset() {
	configDirOverride = ""
}
