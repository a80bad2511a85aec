//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewStoreCommand creates the `salus store <key> <value>` command.
func NewStoreCommand() *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store <key> <value>",
		Short: "Store a value under key",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.StoreAction(args[0], args[1]))
			if err != nil {
				fmt.Println(err.Error())
				return
			}
			printPlainResponse(resp, "Stored.")
		},
	}

	return storeCmd
}
