/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process and installs the result as the
// global logger.
func Setup(environment string) zerolog.Logger {
	logger := New(environment, os.Stdout)
	log.Logger = logger
	return logger
}

// New builds a logger writing to w. Development gets human-readable console
// output at debug level; every other environment gets JSON lines at info.
func New(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	out := w
	if isDevelopment(environment) {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stdout}
	}

	return zerolog.New(out).With().Timestamp().Str("service", "panchangd").Logger().Level(level)
}

func isDevelopment(environment string) bool {
	env := strings.ToLower(strings.TrimSpace(environment))
	return env == "" || env == "development" || env == "dev"
}
