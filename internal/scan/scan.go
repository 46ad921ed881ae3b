// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are directory names never descended into, regardless of pattern.
// They hold generated or third-party code that must not contribute definitions.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".next":        true,
	".ama":         true,
}

type (
	// File is one candidate source file found by the scanner.
	File struct {
		// Path is the absolute path to the file.
		Path string
		// Rel is the slash-separated path relative to the scan root,
		// used for display and for stable ordering.
		Rel string
	}

	// Scanner finds project files matching the configured include patterns.
	Scanner struct {
		root     string
		patterns []string
	}
)

// New creates a Scanner rooted at root. Patterns use doublestar syntax and
// are matched against slash-separated paths relative to root.
func New(root string, patterns []string) *Scanner {
	return &Scanner{
		root:     root,
		patterns: patterns,
	}
}

// Files returns all files matching any include pattern, deduplicated and
// sorted by relative path. Matches under skipDirs entries are dropped.
// Patterns that match nothing produce a warning diagnostic, not an error.
func (s *Scanner) Files() ([]File, []Diagnostic, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve scan root %q: %w", s.root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat scan root %q: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("scan root %q is not a directory", absRoot)
	}

	fsys := os.DirFS(absRoot)
	diagnostics := make([]Diagnostic, 0)
	seen := make(map[string]bool)
	var files []File

	for _, pattern := range s.patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			diagnostics = append(diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     "pattern_failed",
				Message:  fmt.Sprintf("failed to evaluate include pattern %q: %v", pattern, err),
				Path:     pattern,
				Cause:    err,
			})
			continue
		}

		matched := 0
		for _, rel := range matches {
			if seen[rel] {
				matched++
				continue
			}
			if underSkippedDir(rel) {
				continue
			}
			fi, err := os.Stat(filepath.Join(absRoot, filepath.FromSlash(rel)))
			if err != nil || fi.IsDir() {
				continue
			}
			seen[rel] = true
			matched++
			files = append(files, File{
				Path: filepath.Join(absRoot, filepath.FromSlash(rel)),
				Rel:  rel,
			})
		}

		if matched == 0 {
			diagnostics = append(diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     "pattern_no_matches",
				Message:  fmt.Sprintf("include pattern %q matched no files", pattern),
				Path:     pattern,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })

	return files, diagnostics, nil
}

// underSkippedDir reports whether any path segment names a skipped directory.
func underSkippedDir(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if skipDirs[segment] {
			return true
		}
	}
	return false
}
