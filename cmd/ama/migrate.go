// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/atmyapp/ama/internal/assemble"
	"github.com/atmyapp/ama/internal/config"
	"github.com/atmyapp/ama/internal/issue"
	"github.com/atmyapp/ama/internal/remote"
	"github.com/atmyapp/ama/internal/storage"
	"github.com/atmyapp/ama/internal/transform"
)

// migrateParams bundles the dependencies and flags for the migrate and
// generate commands, enabling the core logic in runMigrate to be tested
// without a real Cobra command or a live platform API.
type migrateParams struct {
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger

	root       string // project directory, "." for CLI runs
	configFile string // --config override
	include    []string
	out        string
	token      string

	parallelism     int
	continueOnError bool
	strictWire      bool
	upload          bool // false for generate and --dry-run
	dryRun          bool // true only for migrate --dry-run, controls the skip note
}

// newMigrateCommand creates the `ama migrate` command, which runs the whole
// definition pipeline: scan, extract, assemble, persist, upload.
func newMigrateCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Scan the project and upload its definitions to AtMyApp",
		Long: `Scan the project and upload its definitions to AtMyApp.

The migrate command finds every file matching the include patterns,
extracts the definitions listed in their manifest exports, assembles them
into one definitions document, writes it locally, and pushes it to the
platform. Use --dry-run to stop after the local write.`,
		Example: `  # Migrate with the patterns from ama.cue
  ama migrate

  # See what would be produced without uploading
  ama migrate --dry-run

  # Scan additional sources and keep going past broken files
  ama migrate --include 'app/**/*.ts' --continue-on-error

  # Limit the extraction workers
  ama migrate --parallel 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			dryRun, _ := cmd.Flags().GetBool("dry-run")
			parallelism, _ := cmd.Flags().GetInt("parallel")
			continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
			include, _ := cmd.Flags().GetStringArray("include")
			out, _ := cmd.Flags().GetString("out")
			strictWire, _ := cmd.Flags().GetBool("strict-wire")
			token, _ := cmd.Flags().GetString("token")

			p := migrateParams{
				stdout:          cmd.OutOrStdout(),
				stderr:          cmd.ErrOrStderr(),
				logger:          newRunLogger(),
				root:            ".",
				configFile:      cfgFile,
				include:         include,
				out:             out,
				token:           token,
				parallelism:     parallelism,
				continueOnError: continueOnError,
				strictWire:      strictWire,
				upload:          !dryRun,
				dryRun:          dryRun,
			}

			return runMigrate(cmd.Context(), app, p)
		},
	}

	cmd.Flags().Bool("dry-run", false, "run the whole pipeline but skip the upload")
	cmd.Flags().IntP("parallel", "p", 0, "extraction workers (0 = one per CPU, 1 = single process)")
	cmd.Flags().Bool("continue-on-error", false, "keep going when a file fails to extract")
	cmd.Flags().StringArray("include", nil, "glob pattern to scan (repeatable, overrides config)")
	cmd.Flags().String("out", "", "where to write the definitions document (default .ama/definitions.json)")
	cmd.Flags().Bool("strict-wire", false, "treat wire schema violations as errors")
	cmd.Flags().String("token", "", "access token for this run only (overrides the session)")

	return cmd
}

// runMigrate is the core pipeline logic, separated from Cobra for testability.
// All user-facing output goes through p.stdout and p.stderr.
//
// Flow:
//  1. Load and merge configuration, overlaying --include and --out.
//  2. Run the migration service: scan, extract, assemble.
//  3. Refuse to continue when the run produced nothing. An empty document
//     would wipe the remote content, so this exits non-zero.
//  4. Check the document against the wire schema (warnings, or errors
//     under --strict-wire).
//  5. Persist the document and keep the output directory gitignored.
//  6. Unless this is a dry run, push the document to the platform.
func runMigrate(ctx context.Context, app *App, p migrateParams) error {
	for _, pattern := range p.include {
		if valid, errs := config.GlobPattern(pattern).IsValid(); !valid {
			printIssue(p.stderr, issue.InvalidPatternId)
			return &ExitError{Code: 1, Err: errs[0]}
		}
	}

	cfg, err := app.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: p.configFile,
		ProjectDir:     p.root,
	})
	if err != nil {
		if errors.Is(err, config.ErrInvalidGlobPattern) {
			printIssue(p.stderr, issue.InvalidPatternId)
		} else {
			printIssue(p.stderr, issue.ConfigLoadFailedId)
		}
		return &ExitError{Code: 1, Err: err}
	}

	include := cfg.IncludeStrings()
	if len(p.include) > 0 {
		include = p.include
	}
	out := cfg.OutOrDefault()
	if p.out != "" {
		out = p.out
	}

	res, err := app.Migration.Run(ctx, MigrateRequest{
		Root:            p.root,
		Include:         include,
		Description:     cfg.Description,
		Args:            cfg.Args,
		Metadata:        cfg.Metadata,
		Parallelism:     p.parallelism,
		ContinueOnError: p.continueOnError,
		Logger:          p.logger,
	})
	if err != nil {
		fmt.Fprintf(p.stderr, "%s %v\n", ErrorStyle.Render("✗"), err)
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			renderServiceError(p.stderr, svcErr)
		}
		return &ExitError{Code: 1, Err: err}
	}

	app.Diagnostics.Render(res.Diagnostics, p.stderr)

	if res.Files == 0 {
		printIssue(p.stderr, issue.ManifestNotFoundId)
		return &ExitError{Code: 1, Err: fmt.Errorf("no files matched the include patterns %v", include)}
	}
	if len(res.Processing.Contents) == 0 {
		printIssue(p.stderr, issue.NoDefinitionsId)
		return &ExitError{Code: 1, Err: fmt.Errorf("the scanned files produced no definitions")}
	}

	fmt.Fprintf(p.stdout, "%s extracted %d definition(s) from %d file(s)\n",
		SuccessStyle.Render("✓"), res.Processing.SuccessCount, res.Files)
	if res.Processing.FailureCount > 0 {
		fmt.Fprintf(p.stdout, "%s %d file(s) failed to extract\n",
			WarningStyle.Render("!"), res.Processing.FailureCount)
		for _, msg := range res.Processing.Errors {
			fmt.Fprintf(p.stderr, "  %s %s\n", ErrorStyle.Render("✗"), msg)
		}
	}
	fmt.Fprintf(p.stdout, "  %s\n", SubtitleStyle.Render(fmt.Sprintf(
		"%d content definitions, %d events, %d mdx configs",
		len(res.Document.Definitions), len(res.Document.Events), len(res.Document.Mdx))))

	renderContentWarnings(res, p)

	if err := checkWireShape(res, p); err != nil {
		return err
	}

	if err := storage.WriteDefinitions(res.Document, out); err != nil {
		printIssue(p.stderr, issue.OutputWriteFailedId)
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprintf(p.stdout, "%s wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(out))

	if strings.HasPrefix(filepath.ToSlash(out), ".ama/") {
		added, err := storage.EnsureGitignore(p.root)
		if err != nil {
			p.logger.Warn("could not update .gitignore", "error", err)
		} else if added {
			fmt.Fprintf(p.stdout, "%s added %s to .gitignore\n", SuccessStyle.Render("✓"), storage.IgnoreEntry)
		}
	}

	if !p.upload {
		if p.dryRun {
			fmt.Fprintln(p.stdout, SubtitleStyle.Render("dry run: skipping upload"))
		}
		return nil
	}

	session, err := resolveSession(p.token)
	if err != nil {
		printIssue(p.stderr, issue.NotLoggedInId)
		return &ExitError{Code: 1, Err: err}
	}

	if err := app.Platform.Dial(session).PushDefinitions(ctx, res.Document); err != nil {
		renderPlatformError(p.stderr, err)
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Fprintf(p.stdout, "%s uploaded to %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(session.ProjectURL))

	return nil
}

// renderContentWarnings surfaces record-level problems that made the
// assembler drop definitions, so the user learns why something is missing
// from the document instead of silently losing it.
func renderContentWarnings(res *MigrateResult, p migrateParams) {
	seen := make(map[string]int, len(res.Processing.Contents))
	for i := range res.Processing.Contents {
		seen[res.Processing.Contents[i].Path]++
	}
	var dups []string
	for path, n := range seen {
		if path != "" && n > 1 {
			dups = append(dups, path)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		fmt.Fprintf(p.stderr, "%s duplicate definition paths: %s\n",
			WarningStyle.Render("!"), strings.Join(dups, ", "))
		printIssue(p.stderr, issue.DuplicatePathsId)
	}

	var reserved []string
	for i := range res.Processing.Contents {
		c := &res.Processing.Contents[i]
		if !transform.HasRowType(c.Structure) {
			continue
		}
		if fields := transform.ReservedRowFields(c.Structure); len(fields) > 0 {
			reserved = append(reserved, fmt.Sprintf("%s (%s)", c.Path, strings.Join(fields, ", ")))
		}
	}
	if len(reserved) > 0 {
		sort.Strings(reserved)
		fmt.Fprintf(p.stderr, "%s reserved collection fields: %s\n",
			WarningStyle.Render("!"), strings.Join(reserved, "; "))
		printIssue(p.stderr, issue.ReservedFieldId)
	}
}

// checkWireShape validates the assembled document against the platform's
// wire schema. Violations are warnings by default and errors under
// --strict-wire; infrastructure failures of the check itself never block
// the run.
func checkWireShape(res *MigrateResult, p migrateParams) error {
	violations, err := assemble.CheckWireShape(res.Document)
	if err != nil {
		p.logger.Warn("wire shape check skipped", "error", err)
		return nil
	}
	if len(violations) == 0 {
		return nil
	}

	style := WarningStyle
	if p.strictWire {
		style = ErrorStyle
	}
	for _, v := range violations {
		fmt.Fprintf(p.stderr, "%s %s\n", style.Render("wire:"), v)
	}

	if p.strictWire {
		return &ExitError{Code: 1, Err: fmt.Errorf("document violates the wire schema (%d problem(s))", len(violations))}
	}
	return nil
}

// renderPlatformError maps remote API failures to their issue cards: a
// minimum-CLI-version rejection, bad credentials, or a generic upload
// failure.
func renderPlatformError(stderr io.Writer, err error) {
	fmt.Fprintf(stderr, "%s %v\n", ErrorStyle.Render("✗"), err)

	var minCli *remote.MinCliError
	switch {
	case errors.As(err, &minCli):
		printIssue(stderr, issue.CliVersionTooOldId)
	case errors.Is(err, remote.ErrUnauthorized):
		printIssue(stderr, issue.NotLoggedInId)
	default:
		printIssue(stderr, issue.UploadFailedId)
	}
}
