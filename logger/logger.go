// Copyright 2024-2026 Examchain Labs
// SPDX-License-Identifier: Apache-2.0

// Package logger provides a configurable logger shared across examproof components.
//
// The root logger uses github.com/rs/zerolog with a console writer. It is
// silenced automatically when running under `go test` so that registry and
// tree operations do not pollute test output.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger()

	if strings.HasSuffix(os.Args[0], ".test") {
		logger = zerolog.Nop()
	}
}

// SetOutput changes the output of the global logger.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Set allows a user to override the global logger.
func Set(l zerolog.Logger) {
	logger = l
}

// Disable disables logging.
func Disable() {
	logger = zerolog.Nop()
}

// Logger returns the root logger; components derive sub-loggers from it.
func Logger() zerolog.Logger {
	return logger
}
