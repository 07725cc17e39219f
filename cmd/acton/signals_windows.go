//go:build windows

package main

import (
	"log/slog"
	"os"
	"syscall"
)

// getShutdownSignals returns the signals to listen for on Windows.
func getShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

// handlePlatformSignal has no platform-specific signals on Windows.
func handlePlatformSignal(sig os.Signal, logger *slog.Logger) bool {
	return false
}
