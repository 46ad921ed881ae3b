// SPDX-License-Identifier: MPL-2.0

package main

import (
	cmd "github.com/atmyapp/ama/cmd/ama"
)

func main() {
	cmd.Execute()
}
