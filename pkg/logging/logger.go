package logging

import (
	"context"
	"io"
	"os"
)

// Level represents log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger defines the interface for logging.
// The zerolog-backed ZeroLogger is the only real implementation.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an info message
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a logger with additional fields
	WithFields(fields Fields) Logger

	// Close flushes and closes the logger
	Close() error
}

// Options selects and configures a logger
type Options struct {
	Enabled bool
	Format  Format
	Level   Level
	// File, when set, receives the log through a rotating writer.
	// Otherwise Output (stderr by default) is used.
	File       string
	MaxSize    int64
	MaxBackups int
	Output     io.Writer
}

// New builds the logger described by opts
func New(opts Options) (Logger, error) {
	if !opts.Enabled {
		return NewNullLogger(), nil
	}

	if opts.File != "" {
		return NewFileLogger(FileLoggerConfig{
			Path:       opts.File,
			Format:     opts.Format,
			Level:      opts.Level,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
		})
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return NewZeroLogger(out, opts.Format, opts.Level), nil
}

// NullLogger discards all output. Used when logging is disabled.
type NullLogger struct{}

// NewNullLogger creates a new null logger
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(ctx context.Context, msg string, fields Fields)            {}
func (l *NullLogger) Info(ctx context.Context, msg string, fields Fields)             {}
func (l *NullLogger) Warn(ctx context.Context, msg string, fields Fields)             {}
func (l *NullLogger) Error(ctx context.Context, msg string, err error, fields Fields) {}

// WithFields returns the same null logger
func (l *NullLogger) WithFields(fields Fields) Logger {
	return l
}

// Close does nothing
func (l *NullLogger) Close() error {
	return nil
}
