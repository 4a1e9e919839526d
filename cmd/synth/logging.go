package main

import (
	"io"
	"log/slog"
)

// the TUI owns the terminal, so simulator logs are dropped while it runs
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
