//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewInitCommand creates the `salus init` command, which requests a
// fresh master key and prints the resulting shares.
func NewInitCommand() *cobra.Command {
	var numShares, threshold uint8

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a new master key and print its shares",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.GenShares(numShares, threshold))
			if err != nil {
				fmt.Println(err.Error())
				return
			}

			switch resp.Tag {
			case wire.TagShares:
				fmt.Println("New shares (store these securely, separately):")
				for i, share := range resp.Shares {
					fmt.Printf("  %d: %s\n", i+1, share)
				}
			case wire.TagAlreadyInitialized:
				fmt.Println("salusd is already initialized.")
			case wire.TagError:
				fmt.Println("Error:", resp.Message)
			default:
				fmt.Println("Unexpected response from salusd.")
			}
		},
	}

	initCmd.Flags().Uint8VarP(&numShares, "num-shares", "n", 5, "the number of shares to create")
	initCmd.Flags().Uint8VarP(&threshold, "threshold", "t", 3, "the number of shares required to unlock")

	return initCmd
}
