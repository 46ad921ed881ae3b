// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCUEPath is the sentinel error wrapped by CUEPath.Validate failures.
var ErrInvalidCUEPath = errors.New("invalid CUE path")

// CUEPath is a JSON-path-style reference into a CUE document,
// e.g. "include[0]" or "args.locale". Used to carry error positions
// through validation layers.
type CUEPath string

// Validate reports whether the path is non-empty and not whitespace-only.
func (p CUEPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return fmt.Errorf("%w: path is empty", ErrInvalidCUEPath)
	}
	return nil
}

// String returns the path as a plain string.
func (p CUEPath) String() string {
	return string(p)
}
