// Package logging builds the zerolog logger shared by the CLI and the
// helper packages.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// AppName is attached to every log line as the "app" field.
const AppName = "harnessutil"

// New returns a console logger writing to w. Debug output is enabled only
// when verbose is set; otherwise the logger starts at info level.
func New(w io.Writer, verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", AppName).Logger()
}

// Component derives a child logger tagged with the helper name, e.g.
// "retry" or "port".
func Component(parent zerolog.Logger, name string) zerolog.Logger {
	return parent.With().Str("component", name).Logger()
}
