//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net"

	"github.com/salusd/salusd/internal/config"
	"github.com/salusd/salusd/internal/daemon"
	"github.com/salusd/salusd/internal/wire"
)

// roundTrip dials the daemon's local socket, writes action, and reads
// back the single Response. Every subcommand funnels through here — the
// client is intentionally too thin to need a persistent connection or
// a request queue of its own.
func roundTrip(action wire.Action) (wire.Response, error) {
	addr := daemon.SocketAddr(config.SocketPath())

	conn, err := net.Dial("unix", addr)
	if err != nil {
		return wire.Response{}, fmt.Errorf("failed to connect to salusd: %w", err)
	}
	defer conn.Close()

	if err := wire.EncodeAction(conn, action); err != nil {
		return wire.Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}

	resp, err := wire.DecodeResponse(conn)
	if err != nil {
		return wire.Response{}, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}
