package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a named, leveled logger. Every package keeps its own instance.
type Logger struct {
	name string
	zl   zerolog.Logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "OFF", "DISABLED":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a logger writing to w, or to stdout when w is nil.
func NewLogger(name string, level string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.DateTime,
		NoColor:    w != os.Stdout,
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("[%s] %v", name, i)
		},
	}
	zl := zerolog.New(console).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{name: name, zl: zl}
}

// Name returns the logger's module name.
func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
