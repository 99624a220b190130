// Package telemetry provides the structured logger injected per builder
// instance (spec §9's "Global logger reference: not global in the core;
// injected per builder instance (log_name)") and the small environment-
// driven configuration cmd/statetreectl loads at startup.
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the narrow logging surface the rest of this module depends on,
// so that swapping the backing implementation never touches call sites.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
	Named(name string) Logger
}

// zerologLogger adapts a zerolog.Logger to the Logger interface, mirroring
// dmitrymomot-saaskit's convention of a thin named-logger wrapper around a
// single structured backend rather than a global *log.Logger.
type zerologLogger struct {
	log zerolog.Logger
}

// New creates a Logger writing to w at the given level name ("debug",
// "info", "warn", "error"; unrecognized names default to "info").
func New(w io.Writer, level string) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	return &zerologLogger{log: zerolog.New(w).Level(parsed).With().Timestamp().Logger()}
}

// Default returns a Logger writing to stderr at info level, the fallback
// used whenever a builder isn't given an explicit log_name logger.
func Default() Logger {
	return New(os.Stderr, "info")
}

// Noop returns a Logger that discards everything, useful for tests that
// don't care about log output but still want a concrete Logger to inject.
func Noop() Logger {
	return New(io.Discard, "error")
}

func (l *zerologLogger) Debug(msg string, kv ...any) {
	attachFields(l.log.Debug(), kv).Msg(msg)
}

func (l *zerologLogger) Info(msg string, kv ...any) {
	attachFields(l.log.Info(), kv).Msg(msg)
}

func (l *zerologLogger) Error(msg string, err error, kv ...any) {
	attachFields(l.log.Error().Err(err), kv).Msg(msg)
}

func (l *zerologLogger) Named(name string) Logger {
	return &zerologLogger{log: l.log.With().Str("log_name", name).Logger()}
}

func attachFields(event *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, kv[i+1])
	}
	return event
}
