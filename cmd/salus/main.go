//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/salusd/salusd/cmd/salus/internal/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
