// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/atmyapp/ama/pkg/amadef"
)

// IgnoreEntry is the .gitignore line covering everything the CLI writes
// into a project.
const IgnoreEntry = ".ama/"

// WriteDefinitions persists the document at path as indented JSON with a
// trailing newline, creating parent directories as needed.
func WriteDefinitions(doc *amadef.OutputDefinition, path string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding definitions: %w", err)
	}
	payload = append(payload, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EnsureGitignore adds IgnoreEntry to the project's .gitignore, creating
// the file when missing. It reports whether a line was added.
func EnsureGitignore(root string) (bool, error) {
	path := filepath.Join(root, ".gitignore")

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if ignoresOutputDir(string(data)) {
		return false, nil
	}

	var sb strings.Builder
	sb.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(IgnoreEntry + "\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// ignoresOutputDir reports whether the .gitignore content already covers
// the output directory, tolerating slash variants and surrounding space.
func ignoresOutputDir(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		entry := strings.TrimSpace(line)
		entry = strings.TrimPrefix(entry, "/")
		entry = strings.TrimSuffix(entry, "/")
		if entry == ".ama" {
			return true
		}
	}
	return false
}
