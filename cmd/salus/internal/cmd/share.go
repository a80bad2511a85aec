//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewShareCommand creates the `salus share <token>` command, which
// contributes one share toward the daemon's in-memory unlock buffer.
func NewShareCommand() *cobra.Command {
	shareCmd := &cobra.Command{
		Use:   "share <token>",
		Short: "Contribute one share toward unlocking salusd",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.ShareAction(args[0]))
			if err != nil {
				fmt.Println(err.Error())
				return
			}
			printPlainResponse(resp, "Share accepted.")
		},
	}

	return shareCmd
}

// printPlainResponse prints okMsg on Success and the error message
// otherwise. Used by the subcommands whose only meaningful responses
// are Success or Error.
func printPlainResponse(resp wire.Response, okMsg string) {
	switch resp.Tag {
	case wire.TagSuccess:
		fmt.Println(okMsg)
	case wire.TagError:
		fmt.Println("Error:", resp.Message)
	default:
		fmt.Println("Unexpected response from salusd.")
	}
}
