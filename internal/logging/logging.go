// Package logging builds the charmbracelet/log loggers shared by the model
// driver, the experiment runner and the CLI.
//
// The CLI attaches its logger to the context passed to experiment setup and
// runs; the experiment reads it back with FromContext.
package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger with "HH:MM:SS.ms" timestamps writing to w at level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Discard returns a logger that drops every message.
func Discard() *log.Logger {
	return New(io.Discard, log.FatalLevel)
}

// ParseLevel maps a level name to a log level. The empty string means info.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Timer logs completion of an operation together with its elapsed time.
type Timer struct {
	logger *log.Logger
	start  time.Time
}

func StartTimer(l *log.Logger) *Timer {
	return &Timer{logger: l, start: time.Now()}
}

func (t *Timer) Elapsed() time.Duration { return time.Since(t.start) }

// Done logs msg with the elapsed time rounded to the millisecond and returns
// the unrounded elapsed time.
func (t *Timer) Done(msg string, keyvals ...any) time.Duration {
	elapsed := t.Elapsed()
	keyvals = append(keyvals, "elapsed", elapsed.Round(time.Millisecond))
	t.logger.Info(msg, keyvals...)
	return elapsed
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or log.Default().
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
