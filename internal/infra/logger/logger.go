package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Logger implements waLog.Logger on top of zerolog.
type Logger struct {
	module string
	zl     zerolog.Logger
}

// New creates a Logger writing colored console output to stderr.
func New(module string, level string) *Logger {
	return NewWithWriter(module, level, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000",
	})
}

// NewWithWriter creates a Logger writing to w.
func NewWithWriter(module string, level string, w io.Writer) *Logger {
	zl := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{module: module, zl: zl}
}

// ParseLevel converts string level to a zerolog level. Unknown values mean INFO.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "NONE", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Sub creates a sub-logger with a new module name.
func (l *Logger) Sub(module string) waLog.Logger {
	newModule := module
	if l.module != "" {
		newModule = l.module + "/" + module
	}
	return &Logger{module: newModule, zl: l.zl}
}

// Debugf logs a debug message.
func (l *Logger) Debugf(msg string, args ...interface{}) {
	l.event(l.zl.Debug()).Msgf(msg, args...)
}

// Infof logs an info message.
func (l *Logger) Infof(msg string, args ...interface{}) {
	l.event(l.zl.Info()).Msgf(msg, args...)
}

// Warnf logs a warning message.
func (l *Logger) Warnf(msg string, args ...interface{}) {
	l.event(l.zl.Warn()).Msgf(msg, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(msg string, args ...interface{}) {
	l.event(l.zl.Error()).Msgf(msg, args...)
}

func (l *Logger) event(e *zerolog.Event) *zerolog.Event {
	if l.module != "" {
		e = e.Str("module", l.module)
	}
	return e
}

// Ensure Logger implements waLog.Logger.
var _ waLog.Logger = (*Logger)(nil)
