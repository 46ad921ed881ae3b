// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/internal/assemble"
	"github.com/atmyapp/ama/internal/config"
	"github.com/atmyapp/ama/internal/issue"
	"github.com/atmyapp/ama/internal/parallel"
	"github.com/atmyapp/ama/internal/pipeline"
	"github.com/atmyapp/ama/internal/remote"
	"github.com/atmyapp/ama/internal/scan"
	"github.com/atmyapp/ama/pkg/amadef"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer — all Cobra command handlers receive an App
	// reference and delegate business logic through its service interfaces.
	App struct {
		Config      ConfigProvider
		Migration   MigrationService
		Platform    PlatformDialer
		Diagnostics DiagnosticRenderer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests can
	// supply mock implementations to isolate specific service behavior.
	Dependencies struct {
		Config      ConfigProvider
		Migration   MigrationService
		Platform    PlatformDialer
		Diagnostics DiagnosticRenderer
	}

	// MigrateRequest captures one extraction run's inputs as an immutable value.
	MigrateRequest struct {
		// Root is the project directory scanned for definition files.
		Root string
		// Include lists the glob patterns selecting files to scan.
		Include []string
		// Description is attached to the output document. Empty keeps the
		// stock description.
		Description string
		// Args are copied into the output document verbatim.
		Args map[string]any
		// Metadata is merged into the document's metadata block.
		Metadata map[string]any
		// Parallelism is the requested worker count. Zero sizes the pool to
		// the machine; one forces the single-process path.
		Parallelism int
		// ContinueOnError keeps the run going past per-file extraction failures.
		ContinueOnError bool
		// Logger receives pipeline diagnostics.
		Logger *log.Logger
	}

	// MigrateResult is everything one extraction run produced.
	MigrateResult struct {
		// Files is how many files the scanner matched.
		Files int
		// Processing is the aggregated extraction outcome.
		Processing *amadef.ProcessingResult
		// Document is the assembled output document.
		Document *amadef.OutputDefinition
		// Diagnostics carries non-fatal scan problems for the CLI to render.
		Diagnostics []scan.Diagnostic
	}

	// MigrationService runs the scan-extract-assemble pipeline and returns
	// structured results. Implementations must not write to stdout/stderr;
	// user-facing rendering stays in the command handlers.
	MigrationService interface {
		Run(ctx context.Context, req MigrateRequest) (*MigrateResult, error)
	}

	// PlatformClient is the remote surface commands talk to once a session
	// is resolved.
	PlatformClient interface {
		PushDefinitions(ctx context.Context, doc *amadef.OutputDefinition) error
		UploadFile(ctx context.Context, localPath, remotePath string) error
		DownloadSnapshot(ctx context.Context, destDir string) error
	}

	// PlatformDialer builds a platform client from stored credentials.
	PlatformDialer interface {
		Dial(session *config.Session) PlatformClient
	}

	// DiagnosticRenderer renders structured scan diagnostics.
	DiagnosticRenderer interface {
		Render(diags []scan.Diagnostic, stderr io.Writer)
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources or mock
	// implementations.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	appMigrationService struct{}

	livePlatformDialer struct{}

	defaultDiagnosticRenderer struct{}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Migration == nil {
		deps.Migration = &appMigrationService{}
	}
	if deps.Platform == nil {
		deps.Platform = &livePlatformDialer{}
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = &defaultDiagnosticRenderer{}
	}

	return &App{
		Config:      deps.Config,
		Migration:   deps.Migration,
		Platform:    deps.Platform,
		Diagnostics: deps.Diagnostics,
	}
}

// Run scans the project, extracts definitions across the worker pool, and
// assembles the output document. Extraction failures come back as
// ServiceErrors carrying the manifest-parse issue card; context
// cancellation and scan infrastructure failures stay plain errors.
func (s *appMigrationService) Run(ctx context.Context, req MigrateRequest) (*MigrateResult, error) {
	logger := req.Logger
	if logger == nil {
		logger = log.Default()
	}

	files, diags, err := scan.New(req.Root, req.Include).Files()
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	opts := parallel.Options{
		Parallelism:     req.Parallelism,
		ContinueOnError: req.ContinueOnError,
		Logger:          logger,
	}

	var res *amadef.ProcessingResult
	if req.Parallelism == 1 {
		res, err = parallel.RunSequential(ctx, paths, opts)
	} else {
		res, err = parallel.Run(ctx, paths, opts)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, newServiceError(err, issue.ManifestParseErrorId, "")
	}

	runCfg := &pipeline.RunConfig{
		Description: req.Description,
		Args:        req.Args,
		Metadata:    req.Metadata,
	}
	doc := assemble.New(pipeline.New(), nil, logger).GenerateOutput(res.Contents, runCfg)

	return &MigrateResult{
		Files:       len(files),
		Processing:  res,
		Document:    doc,
		Diagnostics: diags,
	}, nil
}

// Dial builds a live API client bound to the session's project URL and token.
func (d *livePlatformDialer) Dial(session *config.Session) PlatformClient {
	return remote.NewClient(
		remote.WithBaseURL(session.ProjectURL),
		remote.WithToken(session.Token),
		remote.WithUserAgent("ama/"+Version),
		remote.WithCLIVersion(Version),
	)
}

// Render writes structured diagnostics to stderr with lipgloss styling.
func (r *defaultDiagnosticRenderer) Render(diags []scan.Diagnostic, stderr io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == scan.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(stderr, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, diag.Message)
	}
}

// resolveSession loads the stored credentials, applying a per-run token
// override from a --token flag. The returned session is always valid.
func resolveSession(tokenOverride string) (*config.Session, error) {
	session, err := config.LoadSession()
	if err != nil {
		return nil, err
	}

	if tokenOverride != "" {
		session.Token = tokenOverride
	}

	if valid, errs := session.IsValid(); !valid {
		return nil, errs[0]
	}

	return session, nil
}
