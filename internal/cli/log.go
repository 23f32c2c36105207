// Package cli implements the nmcanvas command-line interface.
//
// The CLI drives the canvas contract (pkg/canvas) against the configured
// model file and snapshot backend. It is built with cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - validate: Validate the model (or any document) against the schema
//   - apply: Apply a JSON or YAML operation batch to the model
//   - diff: Compare two documents, snapshots or the model
//   - render: Draw the model as DOT, SVG, PDF or PNG, optionally with a diff overlay
//   - snapshot: List, show and clear recorded snapshots
//   - serve: Expose the contract over HTTP
//   - watch: Re-validate and diff the model whenever it changes on disk
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// enables the observability log hooks. Loggers are passed through
// context.Context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, e.g.
// "model saved changes=2 elapsed=12ms".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
