//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salusd/salusd/internal/config"
	"github.com/salusd/salusd/internal/daemon"
	"github.com/salusd/salusd/internal/handler"
	"github.com/salusd/salusd/internal/log"
	"github.com/salusd/salusd/internal/memlock"
	"github.com/salusd/salusd/internal/sharestore"
	"github.com/salusd/salusd/internal/store"
	"github.com/salusd/salusd/pkg/retry"
)

const appName = "salusd"

func main() {
	log.Log().Info(appName, "msg", "starting", "data_dir", config.DataDir())

	if memlock.Lock() {
		log.Log().Info(appName, "msg", "locked process memory")
	} else {
		log.Log().Warn(appName, "msg", "could not lock process memory; consider disabling swap")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The data directory may live on a filesystem that's still mounting at
	// boot (e.g. a fresh container volume), so opening the database gets a
	// short exponential-backoff retry rather than failing on the first try.
	retrier := retry.NewExponentialRetrier(retry.WithBackOffOptions(
		retry.WithInitialInterval(100*time.Millisecond),
		retry.WithMaxElapsedTime(5*time.Second),
	))
	dbRetrier := retry.NewTypedRetrier[*store.Store](retrier)
	db, err := dbRetrier.RetryWithBackoff(ctx, func() (*store.Store, error) {
		return store.Open(ctx, config.DatabasePath())
	})
	if err != nil {
		log.Fatal(appName, "failed to open database", err)
	}
	defer db.Close()

	addr := daemon.SocketAddr(config.SocketPath())
	listener, err := daemon.Listen(addr)
	if err != nil {
		log.Fatal(appName, "failed to bind socket", err)
	}

	keyTimeout := time.Duration(config.KeyTimeoutSeconds()) * time.Second
	h := handler.New(sharestore.New(db), keyTimeout)
	d := daemon.New(listener, h)

	go d.Serve(ctx)

	log.Log().Info(appName, "msg", "daemon is running", "key_timeout_seconds", config.KeyTimeoutSeconds())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Log().Info(appName, "msg", "received shutdown signal", "signal", sig.String())
	cancel()
	_ = listener.Close()
}
