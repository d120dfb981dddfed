// Package logging defines the structured-logging interface used across the
// server, with log/slog and zerolog implementations.
package logging

import (
	"context"
	"io"
)

// Output formats accepted by New.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "login", "account_id", id, "device_id", device)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// New builds the logger for format: slog JSON (the default), slog text, or
// zerolog console output.
func New(w io.Writer, format, level string) Logger {
	switch format {
	case FormatText:
		return NewTextLogger(w, level)
	case FormatConsole:
		return NewConsoleLogger(w, level)
	default:
		return NewJSONLogger(w, level)
	}
}
