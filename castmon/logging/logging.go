// Package logging provides the leveled logger shared by the protocol engine
// and the renderers.
package logging

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Level is a log level as reported by the subsystems.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarning:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger is a leveled logger. Logging after Close is a no-op.
type Logger struct {
	z      zerolog.Logger
	closed uint32
}

// New creates a logger that writes human-readable lines to w. Debug lines are
// dropped unless debug is true.
func New(w io.Writer, component string, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	z := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{z: z}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return &Logger{z: zerolog.Nop()}
}

// With returns a child logger for the given component.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With().Str("component", component).Logger()}
}

// Log writes msg at the given level.
func (l *Logger) Log(level Level, msg string) {
	if atomic.LoadUint32(&l.closed) == 1 {
		return
	}
	l.z.WithLevel(level.zerolog()).Msg(msg)
}

// Debugf logs a formatted debug line.
func (l *Logger) Debugf(f string, v ...interface{}) { l.Log(LevelDebug, fmt.Sprintf(f, v...)) }

// Infof logs a formatted info line.
func (l *Logger) Infof(f string, v ...interface{}) { l.Log(LevelInfo, fmt.Sprintf(f, v...)) }

// Warnf logs a formatted warning line.
func (l *Logger) Warnf(f string, v ...interface{}) { l.Log(LevelWarning, fmt.Sprintf(f, v...)) }

// Errorf logs a formatted error line.
func (l *Logger) Errorf(f string, v ...interface{}) { l.Log(LevelError, fmt.Sprintf(f, v...)) }

// Close stops the logger. It never fails; the error is there to satisfy
// io.Closer.
func (l *Logger) Close() error {
	atomic.StoreUint32(&l.closed, 1)
	return nil
}
