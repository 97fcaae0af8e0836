// Package log is the faucet's structured logging facade. It mirrors the
// key/value-oriented calling convention used throughout the rest of this
// codebase's ancestry (Info/Warn/Error/Crit/Debug/Trace, each taking a
// message and alternating key/value pairs) while delegating the actual
// formatting and output to the standard library's slog, optionally through
// a rotating file writer.
package log

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a leveled, structured logger tagged with a fixed set of
// key/value context pairs.
type Logger struct {
	s *slog.Logger
}

var root = Logger{s: slog.New(slog.NewTextHandler(os.Stderr, nil))}

// Root returns the process-wide root logger.
func Root() Logger { return root }

// SetRoot replaces the process-wide root logger. Called once at startup
// after flags have been parsed.
func SetRoot(l Logger) { root = l }

// New returns a child logger tagged with the given component name and any
// extra key/value context, e.g. log.New("component", "challenge").
func New(ctx ...any) Logger {
	return Logger{s: root.s.With(ctx...)}
}

// NewHandler builds a slog.Handler for the given format ("json" or "text")
// writing to w, suitable for passing to NewWithHandler.
func NewHandler(format string, level slog.Level, w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewRotatingHandler builds a slog.Handler that writes to a size/age-rotated
// file via lumberjack, for the --log.file flag.
func NewRotatingHandler(format, path string, level slog.Level) slog.Handler {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// NewWithHandler constructs a Logger from a raw slog.Handler.
func NewWithHandler(h slog.Handler) Logger {
	return Logger{s: slog.New(h)}
}

func (l Logger) Trace(msg string, ctx ...any) { l.s.Log(context.Background(), slog.LevelDebug-4, msg, ctx...) }
func (l Logger) Debug(msg string, ctx ...any) { l.s.Debug(msg, ctx...) }
func (l Logger) Info(msg string, ctx ...any)  { l.s.Info(msg, ctx...) }
func (l Logger) Warn(msg string, ctx ...any)  { l.s.Warn(msg, ctx...) }
func (l Logger) Error(msg string, ctx ...any) { l.s.Error(msg, ctx...) }

// Crit logs at error level and terminates the process. Used for
// configuration and other startup failures that make it meaningless to
// continue, matching the teacher's log.Crit convention.
func (l Logger) Crit(msg string, ctx ...any) {
	l.s.Error(msg, ctx...)
	os.Exit(1)
}

// With returns a child logger with additional context appended.
func (l Logger) With(ctx ...any) Logger {
	return Logger{s: l.s.With(ctx...)}
}

// Package-level convenience wrappers delegating to the root logger, mirroring
// the teacher's top-level log.Info/log.Error/log.Crit call sites.
func Trace(msg string, ctx ...any) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { root.Crit(msg, ctx...) }
