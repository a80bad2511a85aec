//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewReadCommand creates the `salus read <key>` command.
func NewReadCommand() *cobra.Command {
	readCmd := &cobra.Command{
		Use:   "read <key>",
		Short: "Read the value stored under key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.ReadAction(args[0]))
			if err != nil {
				fmt.Println(err.Error())
				return
			}

			switch resp.Tag {
			case wire.TagValue:
				if resp.Present {
					fmt.Println(resp.Value)
				} else {
					fmt.Println("Key not found.")
				}
			case wire.TagKeyNotFound:
				fmt.Println("Key not found.")
			case wire.TagError:
				fmt.Println("Error:", resp.Message)
			default:
				fmt.Println("Unexpected response from salusd.")
			}
		},
	}

	return readCmd
}
