// SPDX-License-Identifier: MPL-2.0

package platform

// runtime.GOOS values for the platforms the CLI ships on.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
