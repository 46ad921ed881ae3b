// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atmyapp/ama/internal/config"
	"github.com/atmyapp/ama/internal/issue"
)

// newConfigCommand creates the `ama config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration",
		Long: `Manage project configuration.

Project configuration lives in ama.cue at the project root. The session
file with platform credentials is stored separately:
  - Linux: ~/.config/ama/session.toml
  - macOS: ~/Library/Application Support/ama/session.toml
  - Windows: %APPDATA%\ama\session.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default ama.cue in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initProjectConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration and session file paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: cfgFile})
			if err != nil {
				return err
			}

			cueContent := config.GenerateCUE(cfg)
			fmt.Print(cueContent)
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		printIssue(os.Stderr, issue.ConfigLoadFailedId)
		return err
	}

	// Style definitions using shared color palette
	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(headerStyle.Render("Current Configuration"))
	fmt.Println()

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = filepath.Join(".", config.ConfigFileName+"."+config.ConfigFileExt)
	}
	if fileExistsCheck(cfgPath) {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	if cfg.Description != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("description"), valueStyle.Render(cfg.Description))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("description"), SubtitleStyle.Render("(none)"))
	}
	fmt.Printf("%s: %s\n", keyStyle.Render("out"), valueStyle.Render(cfg.OutOrDefault()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("include"))
	if len(cfg.Include) == 0 {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		for _, pattern := range cfg.Include {
			fmt.Printf("  - %s\n", valueStyle.Render(string(pattern)))
		}
	}

	printValueMap("args", cfg.Args)
	printValueMap("metadata", cfg.Metadata)

	return nil
}

func printValueMap(name string, values map[string]any) {
	fmt.Println()
	fmt.Printf("%s:\n", CmdStyle.Render(name))
	if len(values) == 0 {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(none)"))
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %s\n", k, SuccessStyle.Render(fmt.Sprintf("%v", values[k])))
	}
}

func initProjectConfig() error {
	cfgPath := filepath.Join(".", config.ConfigFileName+"."+config.ConfigFileExt)
	if fileExistsCheck(cfgPath) {
		fmt.Printf("%s %s already exists, leaving it untouched\n", WarningStyle.Render("!"), cfgPath)
		return nil
	}

	path, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath() error {
	fmt.Printf("Project config file: %s\n", filepath.Join(".", config.ConfigFileName+"."+config.ConfigFileExt))

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Printf("Config directory: %s\n", cfgDir)

	if sessionPath, err := config.SessionPath(); err == nil {
		fmt.Printf("Session file: %s\n", sessionPath)
	}

	return nil
}

func setConfigValue(ctx context.Context, app *App, key, value string) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return err
	}

	switch key {
	case "description":
		cfg.Description = value

	case "out":
		out := config.OutputPath(value)
		if valid, errs := out.IsValid(); !valid {
			return errs[0]
		}
		cfg.Out = out

	case "include":
		parts := strings.Split(value, ",")
		patterns := make([]config.GlobPattern, 0, len(parts))
		for _, part := range parts {
			pattern := config.GlobPattern(strings.TrimSpace(part))
			if valid, errs := pattern.IsValid(); !valid {
				return errs[0]
			}
			patterns = append(patterns, pattern)
		}
		cfg.Include = patterns

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: description, out, include", key)
	}

	if err := config.Save("", cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
