package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/haven/pkg/resolver"
)

// newLogger creates a logger writing to w at level, with timestamps as
// "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs e.g. "Resolved 42 artifacts (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// warnFunc adapts l to the func(msg, keyvals...) hooks library packages
// accept.
func warnFunc(l *log.Logger) func(string, ...any) {
	return func(msg string, args ...any) { l.Warn(msg, args...) }
}

// eventLogger forwards resolver events to l at the matching level.
func eventLogger(l *log.Logger) func(resolver.Event) {
	return func(e resolver.Event) {
		var kv []any
		if e.Coordinate != "" {
			kv = append(kv, "coordinate", e.Coordinate)
		}
		switch e.Level {
		case resolver.LevelVerbose:
			l.Debug(e.Message, kv...)
		case resolver.LevelWarning:
			l.Warn(e.Message, kv...)
		case resolver.LevelError:
			l.Error(e.Message, kv...)
		default:
			l.Info(e.Message, kv...)
		}
	}
}
