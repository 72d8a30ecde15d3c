package cmd

import (
	"io"
	"log/slog"
)

// newLogger returns a text logger on w. Debug records are only emitted
// with --verbose, so stdout carries nothing but command output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
