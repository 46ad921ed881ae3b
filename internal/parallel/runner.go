// SPDX-License-Identifier: MPL-2.0

package parallel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/atmyapp/ama/internal/normalize"
	"github.com/atmyapp/ama/internal/schemagen"
	"github.com/atmyapp/ama/internal/tsdecl"
	"github.com/atmyapp/ama/pkg/amadef"
)

// prefilterBatchSize bounds how many files are read concurrently while
// testing for definition markers.
const prefilterBatchSize = 50

// maxWorkers caps the extraction pool regardless of requested parallelism.
const maxWorkers = 8

// Options configure a run. The zero value is usable: CPU-count
// parallelism, stop on the first processing error, default logger,
// sidecar-backed extraction.
type Options struct {
	// Parallelism is the requested worker count. Zero or negative selects
	// the machine's logical CPU count. The pool never exceeds maxWorkers.
	Parallelism int

	// ContinueOnError records failed files in the result instead of
	// returning on the first processing error.
	ContinueOnError bool

	Logger *log.Logger

	// NewGenerator builds the extraction engine a worker owns. Nil selects
	// the sidecar generator. Engines are never shared between workers, so
	// they may cache without locking.
	NewGenerator func() schemagen.Generator
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o Options) generator() schemagen.Generator {
	if o.NewGenerator != nil {
		return o.NewGenerator()
	}
	return schemagen.NewSidecar()
}

// task pairs a filtered file with its input position. The position doubles
// as the result slot, so reassembly restores input order regardless of
// completion order.
type task struct {
	id   int
	file string
}

// result mirrors its task id back to the coordinator.
type result struct {
	id       int
	file     string
	contents []amadef.Content
	err      error
}

// Run extracts definitions from files using a bounded worker pool and
// aggregates the per-file results in input order. When
// Options.ContinueOnError is false the first failed file is returned as
// an error; otherwise failures are reported through the result only.
func Run(ctx context.Context, files []string, opts Options) (*amadef.ProcessingResult, error) {
	logger := opts.logger()
	filtered, err := prefilter(ctx, files, logger)
	if err != nil {
		return nil, err
	}

	workers := poolSize(opts.Parallelism, len(filtered))
	logger.Debug("dispatching extraction tasks",
		"candidates", len(files), "files", len(filtered), "workers", workers)

	results := make([]result, len(filtered))
	tasks := make(chan task)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			gen := opts.generator()
			norm := normalize.New(logger)
			for t := range tasks {
				results[t.id] = runTask(ctx, gen, norm, logger, t)
			}
		}()
	}
	for i, file := range filtered {
		tasks <- task{id: i, file: file}
	}
	close(tasks)
	wg.Wait()

	res, err := aggregate(results, opts.ContinueOnError)
	if err != nil {
		return nil, err
	}
	appendMdxContents(ctx, opts.generator(), filtered, res, logger)
	return res, nil
}

// RunSequential is the single-process fallback. It shares the pre-filter,
// per-file extraction, and aggregation with Run, processing files strictly
// in input order with one shared extraction engine.
func RunSequential(ctx context.Context, files []string, opts Options) (*amadef.ProcessingResult, error) {
	logger := opts.logger()
	filtered, err := prefilter(ctx, files, logger)
	if err != nil {
		return nil, err
	}

	gen := opts.generator()
	norm := normalize.New(logger)
	results := make([]result, 0, len(filtered))
	for i, file := range filtered {
		r := runTask(ctx, gen, norm, logger, task{id: i, file: file})
		results = append(results, r)
		if r.err != nil && !opts.ContinueOnError {
			break
		}
	}

	res, err := aggregate(results, opts.ContinueOnError)
	if err != nil {
		return nil, err
	}
	appendMdxContents(ctx, gen, filtered, res, logger)
	return res, nil
}

// prefilter drops files that cannot contain a manifest or MDX declaration,
// using a plain substring test over raw file contents. Files are read
// concurrently in fixed-size batches. Unreadable files are skipped with a
// warning; extraction could not have used them either.
func prefilter(ctx context.Context, files []string, logger *log.Logger) ([]string, error) {
	matched := make([]bool, len(files))
	for start := 0; start < len(files); start += prefilterBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+prefilterBatchSize, len(files))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				src, err := os.ReadFile(files[i])
				if err != nil {
					logger.Warn("skipping unreadable file", "path", files[i], "error", err)
					return
				}
				matched[i] = tsdecl.HasMarker(src)
			}(i)
		}
		wg.Wait()
	}

	filtered := make([]string, 0, len(files))
	for i, ok := range matched {
		if ok {
			filtered = append(filtered, files[i])
		}
	}
	return filtered, nil
}

// runTask executes one file task, converting panics into task failures so
// a poisoned file cannot take down its worker.
func runTask(ctx context.Context, gen schemagen.Generator, norm *normalize.Normalizer, logger *log.Logger, t task) (res result) {
	defer func() {
		if r := recover(); r != nil {
			res = result{id: t.id, file: t.file, err: fmt.Errorf("extraction panicked: %v", r)}
		}
	}()
	contents, err := extractFile(ctx, gen, norm, logger, t.file)
	return result{id: t.id, file: t.file, contents: contents, err: err}
}

// extractFile runs one file through the generator and normalizer. Entries
// whose schema never materialized are logged and skipped without counting
// as failures; the normalizer likewise drops what it cannot resolve.
func extractFile(ctx context.Context, gen schemagen.Generator, norm *normalize.Normalizer, logger *log.Logger, file string) ([]amadef.Content, error) {
	raws, err := gen.Generate(ctx, file)
	if errors.Is(err, schemagen.ErrNoManifest) {
		// Pre-filter false positive, e.g. a file declaring only MDX
		// configuration. The post-pass picks those up.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	contents := make([]amadef.Content, 0, len(raws))
	for _, raw := range raws {
		if raw.Err != nil {
			logger.Warn("skipping definition without a schema",
				"file", file, "definition", raw.Name, "error", raw.Err)
			continue
		}
		if content, ok := norm.Definition(raw.Name, raw.Schema); ok {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// aggregate folds ordered task results into a ProcessingResult. Successes
// count extracted definitions, not files. With continueOnError disabled
// the first failed file ends the run.
func aggregate(results []result, continueOnError bool) (*amadef.ProcessingResult, error) {
	res := &amadef.ProcessingResult{
		Contents: []amadef.Content{},
		Errors:   []string{},
	}
	for _, r := range results {
		if r.err != nil {
			if !continueOnError {
				return nil, fmt.Errorf("%s: %w", r.file, r.err)
			}
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", r.file, r.err))
			res.FailureCount++
			continue
		}
		res.Contents = append(res.Contents, r.contents...)
		res.SuccessCount += len(r.contents)
	}
	return res, nil
}

// appendMdxContents collects MDX component configurations across the
// filtered set and appends one synthetic content per configuration, in
// name order. These ride along with the definition contents but do not
// count as extraction successes.
func appendMdxContents(ctx context.Context, gen schemagen.Generator, files []string, res *amadef.ProcessingResult, logger *log.Logger) {
	configs, err := gen.MdxConfigs(ctx, files)
	if err != nil {
		logger.Warn("mdx configuration pass failed", "error", err)
		return
	}
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		res.Contents = append(res.Contents, amadef.NewMdxContent(name, configs[name]))
	}
}

// poolSize resolves the worker count: requested parallelism or the local
// CPU count, capped at maxWorkers and at the task count.
func poolSize(requested, tasks int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	if n > tasks {
		n = tasks
	}
	if n < 1 {
		n = 1
	}
	return n
}
