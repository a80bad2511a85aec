//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salusd/salusd/internal/wire"
)

// NewUnlockCommand creates the `salus unlock` command, which attempts to
// combine the shares contributed so far and unlock the master key. The
// wire protocol reports Success whether or not the combine actually
// produced a working key — run `salus read` afterward to confirm.
func NewUnlockCommand() *cobra.Command {
	unlockCmd := &cobra.Command{
		Use:   "unlock",
		Short: "Attempt to unlock salusd with the shares contributed so far",
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := roundTrip(wire.Unlock())
			if err != nil {
				fmt.Println(err.Error())
				return
			}
			printPlainResponse(resp, "Unlock attempted. Verify with `salus read`.")
		},
	}

	return unlockCmd
}
