// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atmyapp/ama/internal/issue"
)

// uploadParams bundles the dependencies and flags for the upload command.
type uploadParams struct {
	stdout io.Writer
	stderr io.Writer

	localPath  string
	remotePath string
	token      string
}

// newUploadCommand creates the `ama upload` command, which sends a single
// file to platform storage.
func newUploadCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <path> [remote-path]",
		Short: "Upload one file to platform storage",
		Long: `Upload one file to platform storage.

Without a remote path, the file keeps its project-relative path on the
platform. Paths outside the project are stored under their base name.`,
		Example: `  # Upload under the same relative path
  ama upload assets/hero.png

  # Upload under an explicit remote path
  ama upload build/logo.svg assets/logo.svg

  # One-off token override
  ama upload hero.png --token ama_xxxxx`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			token, _ := cmd.Flags().GetString("token")

			p := uploadParams{
				stdout:    cmd.OutOrStdout(),
				stderr:    cmd.ErrOrStderr(),
				localPath: args[0],
				token:     token,
			}
			if len(args) > 1 {
				p.remotePath = args[1]
			}

			return runUpload(cmd.Context(), app, p)
		},
	}

	cmd.Flags().String("token", "", "access token for this run only (overrides the session)")

	return cmd
}

// runUpload is the core upload logic, separated from Cobra for testability.
func runUpload(ctx context.Context, app *App, p uploadParams) error {
	info, err := os.Stat(p.localPath)
	if err != nil {
		fmt.Fprintf(p.stderr, "%s %v\n", ErrorStyle.Render("✗"), err)
		return &ExitError{Code: 1, Err: err}
	}
	if info.IsDir() {
		err := fmt.Errorf("%s is a directory, only single files can be uploaded", p.localPath)
		fmt.Fprintf(p.stderr, "%s %v\n", ErrorStyle.Render("✗"), err)
		return &ExitError{Code: 1, Err: err}
	}

	remotePath := p.remotePath
	if remotePath == "" {
		remotePath = defaultRemotePath(p.localPath)
	}

	session, err := resolveSession(p.token)
	if err != nil {
		printIssue(p.stderr, issue.NotLoggedInId)
		return &ExitError{Code: 1, Err: err}
	}

	if err := app.Platform.Dial(session).UploadFile(ctx, p.localPath, remotePath); err != nil {
		renderPlatformError(p.stderr, err)
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintf(p.stdout, "%s uploaded %s as %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(p.localPath), CmdStyle.Render(remotePath))

	return nil
}

// defaultRemotePath derives the storage path from the local one: the
// cleaned project-relative path for files inside the project, the base
// name for anything absolute or above the project root.
func defaultRemotePath(localPath string) string {
	cleaned := filepath.ToSlash(filepath.Clean(localPath))
	if filepath.IsAbs(localPath) || strings.HasPrefix(cleaned, "../") {
		return filepath.Base(localPath)
	}
	return cleaned
}
