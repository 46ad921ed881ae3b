// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atmyapp/ama/pkg/platform"
)

// maxEntryBytes is the upper bound on a single extracted snapshot entry
// (100 MB). Prevents decompression bombs from hostile archives.
const maxEntryBytes = 100 << 20

// Unpack extracts the zip archive at archivePath into destDir. Entries
// whose names are not local paths are rejected so an archive cannot write
// outside destDir.
func Unpack(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		// OpenReader still hands back a usable reader in this case.
		_ = r.Close()
		return fmt.Errorf("snapshot entry escapes the target directory: %w", err)
	}
	if err != nil {
		return fmt.Errorf("opening snapshot archive: %w", err)
	}
	defer func() { _ = r.Close() }() // read-only archive handle

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}
	for _, entry := range r.File {
		if err := extractEntry(entry, destDir); err != nil {
			return err
		}
	}
	return nil
}

// extractEntry writes one archive entry under destDir.
func extractEntry(entry *zip.File, destDir string) error {
	name := filepath.FromSlash(entry.Name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("snapshot entry %q escapes the target directory", entry.Name)
	}
	if platform.IsWindowsReservedName(filepath.Base(name)) {
		return fmt.Errorf("snapshot entry %q uses a reserved file name", entry.Name)
	}
	target := filepath.Join(destDir, name)

	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("opening snapshot entry %q: %w", entry.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only entry handle

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	// Copy one byte past the cap so an at-limit entry is distinguishable
	// from an oversized one.
	written, copyErr := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("writing %s: %w", target, copyErr)
	}
	if written > maxEntryBytes {
		return fmt.Errorf("snapshot entry %q exceeds the %d byte cap", entry.Name, int64(maxEntryBytes))
	}
	return nil
}
