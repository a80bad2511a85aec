//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package daemon runs salusd's local socket acceptor loop: one listener,
// and one goroutine per accepted connection that decodes the single
// request, calls into the handler, and writes the single response back.
// The loop stops when the context passed to Serve is cancelled; signal
// handling lives in cmd/salusd. The original_source runtime
// (salusd/src/runtime/mod.rs) splits each connection into tokio tasks
// fed by a channel; here there is no separate reader and dispatcher —
// Go's net.Conn read/write calls don't need the split receiver/sender
// halves the Rust interprocess crate requires.
package daemon

import (
	"context"
	"net"

	"github.com/salusd/salusd/internal/handler"
	"github.com/salusd/salusd/internal/log"
	"github.com/salusd/salusd/internal/wire"
)

// Daemon owns the listener and dispatches accepted connections to an
// ActionHandler until the context passed to Serve is cancelled or the
// listener is closed.
type Daemon struct {
	listener net.Listener
	handler  *handler.ActionHandler
}

// New wraps an already-bound listener and handler.
func New(listener net.Listener, h *handler.ActionHandler) *Daemon {
	return &Daemon{listener: listener, handler: h}
}

// Listen binds a "unix" listener on addr exactly as given (callers pass
// the result of SocketAddr; Listen does not resolve it again). It
// does not remove a stale socket file left behind by a prior crash: if
// the bind fails because the path is already occupied, that's reported
// to the caller as an ordinary error, to be handled (typically a fatal
// exit) the same way the daemon handles any other bind failure. Callers
// needing to recover from a corpse socket must remove it themselves.
func Listen(addr string) (net.Listener, error) {
	return net.Listen("unix", addr)
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed. Each connection is handled in its own single goroutine, which
// decodes one request, runs it against the ActionHandler and writes back
// exactly one Response.
func (d *Daemon) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = d.listener.Close()
	}()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Log().Error("daemon.Serve", "msg", "accept failed", "err", err.Error())
				continue
			}
		}
		go d.handleConn(ctx, conn)
	}
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer recoverPanic("daemon.handleConn")

	action, err := wire.DecodeAction(conn)
	if err != nil {
		log.Log().Warn("daemon.handleConn", "msg", "failed to decode request", "err", err.Error())
		_ = wire.EncodeResponse(conn, wire.ErrorResponse("malformed request"))
		return
	}

	resp := d.handler.Handle(ctx, action)
	if err := wire.EncodeResponse(conn, resp); err != nil {
		log.Log().Warn("daemon.handleConn", "msg", "failed to write response", "err", err.Error())
	}
}

func recoverPanic(fName string) {
	if r := recover(); r != nil {
		log.Log().Error(fName, "msg", "recovered from panic", "panic", r)
	}
}
