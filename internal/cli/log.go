// Package cli implements the flowcanvas command-line interface.
//
// Commands read workflow sources in the TOML source format, run them through
// a [pipeline.Runner] backed by the on-disk layout cache and write layouts,
// overviews, routed wires or exported diagrams. The edit command opens an
// interactive terminal editor over a [session.Session]; serve exposes the
// same operations over HTTP.
//
// # Commands
//
//   - layout: Compute the canvas layout and port anchors of a source
//   - overview: Fit the canvas into a minimap frame
//   - route: Route one wire between two ports or points
//   - export: Render json, dot, svg, canvas, pdf or png
//   - fmt: Rewrite a source in canonical form
//   - opcodes: List the opcode catalog
//   - edit: Edit a source interactively with undo and redo
//   - serve: Serve the engine over HTTP
//   - cache: Manage the layout cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is attached to the command context and retrieved with loggerFromContext.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w with "HH:MM:SS.cc" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one pipeline stage. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	stage  string
	start  time.Time
}

func newProgress(l *log.Logger, stage string) *progress {
	return &progress{logger: l, stage: stage, start: time.Now()}
}

// done logs the stage at info level with its elapsed time and keyvals.
func (p *progress) done(keyvals ...any) {
	kv := append([]any{"elapsed", time.Since(p.start).Round(time.Millisecond)}, keyvals...)
	p.logger.Info(p.stage, kv...)
}

// fail logs the stage at error level.
func (p *progress) fail(err error) {
	p.logger.Error(p.stage+" failed", "err", err, "elapsed", time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
