// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "ama",
		Short: "Migrate typed content definitions to AtMyApp",
		Long: TitleStyle.Render("ama") + SubtitleStyle.Render(" - the AtMyApp migration CLI") + `

ama scans your project for exported definition manifests, converts every
definition into a schema document, and assembles the result into a single
definitions file that can be uploaded to the AtMyApp platform.

Definitions are plain exported types listed in a manifest export:

  export type AmaContents = [Home, About, PageView];

` + SubtitleStyle.Render("Quick Start:") + `
  1. Store your project credentials: ama use <project-url> --token <token>
  2. Check what a run would produce:  ama migrate --dry-run
  3. Migrate for real:                ama migrate

` + SubtitleStyle.Render("Examples:") + `
  ama migrate               Scan, convert, persist and upload definitions
  ama generate              Same pipeline, but only write the local document
  ama upload hero.png       Upload a single file to platform storage
  ama snapshot              Download the current platform content snapshot
  ama config show           Show the merged project configuration`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ama.cue)")

	app := NewApp(Dependencies{})

	// Add subcommands
	rootCmd.AddCommand(newMigrateCommand(app))
	rootCmd.AddCommand(newGenerateCommand(app))
	rootCmd.AddCommand(newUploadCommand(app))
	rootCmd.AddCommand(newSnapshotCommand(app))
	rootCmd.AddCommand(newUseCommand())
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newCompletionCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// newRunLogger builds the logger handed into the definition pipeline.
// Verbose runs log at debug level; normal runs only surface warnings so the
// structured log stream doesn't drown the command's own summary output.
func newRunLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
