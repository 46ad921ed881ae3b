// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atmyapp/ama/internal/issue"
)

// defaultSnapshotDir is where a snapshot lands when no directory is given.
// It lives under the output directory so it stays gitignored alongside the
// generated definitions document.
const defaultSnapshotDir = ".ama/snapshot"

// snapshotParams bundles the dependencies and flags for the snapshot command.
type snapshotParams struct {
	stdout io.Writer
	stderr io.Writer

	destDir string
	token   string
}

// newSnapshotCommand creates the `ama snapshot` command, which downloads
// the platform's current content snapshot and unpacks it locally.
func newSnapshotCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [dir]",
		Short: "Download the current platform content snapshot",
		Long: `Download the current platform content snapshot.

The snapshot is a zip archive of every published content document and
asset. It is unpacked into the given directory, or into ` + defaultSnapshotDir + `
when none is given.`,
		Example: `  # Unpack into ` + defaultSnapshotDir + `
  ama snapshot

  # Unpack into an explicit directory
  ama snapshot ./content-backup`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			token, _ := cmd.Flags().GetString("token")

			p := snapshotParams{
				stdout:  cmd.OutOrStdout(),
				stderr:  cmd.ErrOrStderr(),
				destDir: defaultSnapshotDir,
				token:   token,
			}
			if len(args) > 0 {
				p.destDir = args[0]
			}

			return runSnapshot(cmd.Context(), app, p)
		},
	}

	cmd.Flags().String("token", "", "access token for this run only (overrides the session)")

	return cmd
}

// runSnapshot is the core snapshot logic, separated from Cobra for testability.
func runSnapshot(ctx context.Context, app *App, p snapshotParams) error {
	session, err := resolveSession(p.token)
	if err != nil {
		printIssue(p.stderr, issue.NotLoggedInId)
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(p.stdout, "downloading snapshot from %s\n", CmdStyle.Render(session.ProjectURL))

	if err := app.Platform.Dial(session).DownloadSnapshot(ctx, p.destDir); err != nil {
		renderPlatformError(p.stderr, err)
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(p.stdout, "%s snapshot unpacked into %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(p.destDir))

	return nil
}
