//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewThresholdCommand creates the `salus threshold` command, which
// reports how many shares are required to unlock salusd.
func NewThresholdCommand() *cobra.Command {
	thresholdCmd := &cobra.Command{
		Use:   "threshold",
		Short: "Print the number of shares required to unlock salusd",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.GetThreshold())
			if err != nil {
				fmt.Println(err.Error())
				return
			}

			switch resp.Tag {
			case wire.TagThresholdValue:
				fmt.Println(resp.Threshold)
			case wire.TagError:
				fmt.Println("Error:", resp.Message)
			default:
				fmt.Println("Unexpected response from salusd.")
			}
		},
	}

	return thresholdCmd
}
