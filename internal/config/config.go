// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/atmyapp/ama/internal/issue"
	"github.com/atmyapp/ama/pkg/cueutil"
	"github.com/atmyapp/ama/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "ama"
	// ConfigFileName is the name of the project config file (without extension).
	ConfigFileName = "ama"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the ama configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
//
// Layering order, later layers win: defaults, then the global config in
// ConfigDir, then the project's ama.cue. Scalar and list fields are replaced
// wholesale; args and metadata maps merge key-by-key.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("description", defaults.Description)
	v.SetDefault("include", defaults.IncludeStrings())
	v.SetDefault("out", string(defaults.Out))
	v.SetDefault("args", defaults.Args)
	v.SetDefault("metadata", defaults.Metadata)

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'ama config show' to see default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'ama config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		// Global config under ConfigDir is the base layer.
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		globalPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(globalPath) {
			if err := loadCUEIntoViper(v, globalPath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(globalPath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					Wrap(err).
					BuildError()
			}
			resolvedPath = globalPath
		}

		// Project config wins over the global layer.
		projectDir := opts.ProjectDir
		if projectDir == "" {
			projectDir = "."
		}
		projectPath := filepath.Join(projectDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(projectPath) {
			if err := loadCUEIntoViper(v, projectPath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(projectPath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					WithSuggestion("See 'ama config --help' for configuration options").
					Wrap(err).
					BuildError()
			}
			resolvedPath = projectPath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate pattern constraints that CUE cannot express.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithSuggestion("Check the include patterns for doublestar syntax errors").
			WithSuggestion("Quote patterns so your shell doesn't expand them").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: This uses manual CUE parsing instead of cueutil.ParseAndDecode because:
// 1. Config decodes to map[string]any (not a struct) for Viper integration
// 2. Uses Concrete(false) because config fields are optional
// 3. Needs to merge into Viper's config map, not return a struct
func loadCUEIntoViper(v *viper.Viper, path string) error {
	// Read CUE file
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Check file size using cueutil
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	// Parse with CUE
	ctx := cuecontext.New()

	// Compile the schema
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	// Compile the user's config file
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Decode to Go map
	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default ama.cue in the given project
// directory if one doesn't exist. Returns the path written, or the existing
// path when a config is already present.
func CreateDefaultConfig(projectDir string) (string, error) {
	if projectDir == "" {
		projectDir = "."
	}

	cfgPath := filepath.Join(projectDir, ConfigFileName+"."+ConfigFileExt)

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil // File exists
	}

	defaults := DefaultConfig()
	cueContent := GenerateCUE(defaults)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// Save writes the configuration to the project's ama.cue.
func Save(projectDir string, cfg *Config) error {
	if projectDir == "" {
		projectDir = "."
	}

	cfgPath := filepath.Join(projectDir, ConfigFileName+"."+ConfigFileExt)

	cueContent := GenerateCUE(cfg)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// ama project configuration\n")
	sb.WriteString("// See https://atmyapp.com/docs/cli for documentation.\n\n")

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf("description: %q\n\n", cfg.Description))
	}

	sb.WriteString("include: [\n")
	for _, pattern := range cfg.Include {
		sb.WriteString(fmt.Sprintf("\t%q,\n", string(pattern)))
	}
	sb.WriteString("]\n")

	if cfg.Out != "" {
		sb.WriteString(fmt.Sprintf("\nout: %q\n", string(cfg.Out)))
	}

	if len(cfg.Args) > 0 {
		sb.WriteString("\nargs: ")
		writeCUEValue(&sb, cfg.Args, 0)
		sb.WriteString("\n")
	}

	if len(cfg.Metadata) > 0 {
		sb.WriteString("\nmetadata: ")
		writeCUEValue(&sb, cfg.Metadata, 0)
		sb.WriteString("\n")
	}

	return sb.String()
}

// writeCUEValue renders a decoded JSON value as CUE. Maps are emitted with
// sorted keys so the output is deterministic.
func writeCUEValue(sb *strings.Builder, v any, depth int) {
	indent := strings.Repeat("\t", depth)

	switch val := v.(type) {
	case map[string]any:
		sb.WriteString("{\n")
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(indent + "\t" + fmt.Sprintf("%q", k) + ": ")
			writeCUEValue(sb, val[k], depth+1)
			sb.WriteString("\n")
		}
		sb.WriteString(indent + "}")
	case []any:
		sb.WriteString("[\n")
		for _, item := range val {
			sb.WriteString(indent + "\t")
			writeCUEValue(sb, item, depth+1)
			sb.WriteString(",\n")
		}
		sb.WriteString(indent + "]")
	case string:
		sb.WriteString(fmt.Sprintf("%q", val))
	case bool:
		sb.WriteString(fmt.Sprintf("%v", val))
	case nil:
		sb.WriteString("null")
	default:
		// Numbers and anything else render via %v.
		sb.WriteString(fmt.Sprintf("%v", val))
	}
}
