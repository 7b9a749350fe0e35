// Package cli implements the collage command-line interface.
//
// The CLI lays out and renders collages from a project document, browses
// the projects interactively, serves the HTTP API and manages the cache. It
// is built with cobra; settings come from collage.toml, .env and COLLAGE_*
// variables (see package config) with flags taking precedence.
//
// # Commands
//
//   - layout: Compute a collage layout and write it as layout.json
//   - render: Render a collage (or a stored layout.json) to JSON, SVG or PDF
//   - projects: List the projects of a document
//   - browse: Interactive project list with a live collage
//   - serve: Run the HTTP API
//   - cache: Clear the cache or print its location
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. When the
// config names a log file, output is also written there with rotation.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Rendered 3 formats (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
