//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package cmd implements salus, a thin command-line client for salusd.
// Each subcommand issues exactly one wire action and prints the decoded
// response — there is no interactive prompting or terminal styling, by
// design.
package cmd

import "github.com/spf13/cobra"

const appName = "salus"

// RootCmd is the entry point for all salus subcommands.
var RootCmd = &cobra.Command{
	Use:   "salus",
	Short: appName + " - client for the salusd secret store daemon",
}

func init() {
	RootCmd.AddCommand(NewInitCommand())
	RootCmd.AddCommand(NewShareCommand())
	RootCmd.AddCommand(NewUnlockCommand())
	RootCmd.AddCommand(NewStoreCommand())
	RootCmd.AddCommand(NewReadCommand())
	RootCmd.AddCommand(NewThresholdCommand())
}
