// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newGenerateCommand creates the `ama generate` command: the same pipeline
// as migrate, but it always stops after the local write. Useful in CI to
// check what a migration would produce, or to keep a committed document in
// sync without touching the platform.
func newGenerateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the definitions document without uploading",
		Long: `Generate the definitions document without uploading.

Runs the same scan-extract-assemble pipeline as migrate and writes the
resulting document locally. Nothing is sent to the platform, so no session
is required.`,
		Example: `  # Write .ama/definitions.json
  ama generate

  # Write somewhere else and fail on wire schema violations
  ama generate --out build/definitions.json --strict-wire`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			parallelism, _ := cmd.Flags().GetInt("parallel")
			continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
			include, _ := cmd.Flags().GetStringArray("include")
			out, _ := cmd.Flags().GetString("out")
			strictWire, _ := cmd.Flags().GetBool("strict-wire")

			p := migrateParams{
				stdout:          cmd.OutOrStdout(),
				stderr:          cmd.ErrOrStderr(),
				logger:          newRunLogger(),
				root:            ".",
				configFile:      cfgFile,
				include:         include,
				out:             out,
				parallelism:     parallelism,
				continueOnError: continueOnError,
				strictWire:      strictWire,
				upload:          false,
			}

			return runMigrate(cmd.Context(), app, p)
		},
	}

	cmd.Flags().IntP("parallel", "p", 0, "extraction workers (0 = one per CPU, 1 = single process)")
	cmd.Flags().Bool("continue-on-error", false, "keep going when a file fails to extract")
	cmd.Flags().StringArray("include", nil, "glob pattern to scan (repeatable, overrides config)")
	cmd.Flags().String("out", "", "where to write the definitions document (default .ama/definitions.json)")
	cmd.Flags().Bool("strict-wire", false, "treat wire schema violations as errors")

	return cmd
}
