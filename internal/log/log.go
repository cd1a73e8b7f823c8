// Copyright 2026 The Askdesk Authors
// SPDX-License-Identifier: MIT

// Package log configures structured logging for askdesk using log/slog.
// Logs go to stderr; stdout carries response envelopes only.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls the default logger.
type Options struct {
	Verbose bool
	Quiet   bool

	// Format is "text" (default) or "json".
	Format string

	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// Setup configures the default slog logger based on verbosity flags.
//
//   - quiet mode:   only WARN and ERROR messages
//   - normal mode:  INFO and above
//   - verbose mode: DEBUG and above
//
// Output is written to stderr using slog.TextHandler.
func Setup(verbose, quiet bool) {
	SetupWithOptions(Options{Verbose: verbose, Quiet: quiet})
}

// SetupWithOptions installs a default logger built from opts.
func SetupWithOptions(opts Options) {
	var level slog.Level
	switch {
	case opts.Quiet:
		level = slog.LevelWarn
	case opts.Verbose:
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	slog.SetDefault(slog.New(handler))
}
