// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Frank HJ Cuypers
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/FrankHJCuypers/gaai-sub000/pkg/generic"
)

var _ generic.Logger = (*slog.Logger)(nil)

// newSessionLogger returns the session logger on stderr, with debug lines
// only under --verbose
func newSessionLogger() *slog.Logger {
	return newTextLogger(os.Stderr, verbose)
}

func newTextLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newLinkLogger returns the logger of the transport layer, silent unless
// --verbose is set
func newLinkLogger() *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "link: ", log.Ltime|log.Lmicroseconds)
}
