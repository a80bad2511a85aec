//    \\ salusd: a local Shamir-secret-sharing secret store daemon.
// \\\\\\\ SPDX-License-Identifier: Apache-2.0

// Package log provides the daemon's structured logger and its action
// audit trail.
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var logger *slog.Logger
var loggerMutex sync.Mutex

// Log returns a thread-safe singleton slog.Logger configured for JSON
// output. The level is read from SALUSD_LOG_LEVEL the first time Log is
// called; subsequent calls return the same logger instance.
func Log() *slog.Logger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if logger != nil {
		return logger
	}

	opts := &slog.HandlerOptions{Level: level()}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	return logger
}

func level() slog.Level {
	switch strings.ToLower(os.Getenv("SALUSD_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Fatal logs msg at error level and exits the process with status 1. Used
// at startup for conditions the daemon cannot recover from (socket bind
// failure, database open failure).
func Fatal(fName, msg string, err error) {
	if err != nil {
		Log().Error(fName, "msg", msg, "err", err.Error())
	} else {
		Log().Error(fName, "msg", msg)
	}
	os.Exit(1)
}
