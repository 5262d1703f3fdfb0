package agentlog

import (
	"github.com/kataras/golog"
)

// GologLogger implements Logger using kataras/golog, the richer
// leveled/colorized logger the rest of the ecosystem reaches for when
// stderr-only output isn't enough (structured fields, child loggers).
type GologLogger struct {
	logger *golog.Logger
	level  Level
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger wraps an existing golog.Logger.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	return &GologLogger{logger: logger, level: LevelInfo}
}

// NewDefaultGologLogger creates a golog-backed logger with sane defaults.
func NewDefaultGologLogger() *GologLogger {
	l := golog.New()
	l.SetLevel("info")
	return NewGologLogger(l)
}

// SetLevel adjusts the minimum level this logger emits.
func (l *GologLogger) SetLevel(level Level) {
	l.level = level
	switch level {
	case LevelDebug:
		l.logger.SetLevel("debug")
	case LevelInfo:
		l.logger.SetLevel("info")
	case LevelWarn:
		l.logger.SetLevel("warn")
	case LevelError:
		l.logger.SetLevel("error")
	case LevelNone:
		l.logger.SetLevel("disable")
	}
}

func (l *GologLogger) Debug(format string, v ...any) {
	if l.level <= LevelDebug {
		l.logger.Debugf(format, v...)
	}
}

func (l *GologLogger) Info(format string, v ...any) {
	if l.level <= LevelInfo {
		l.logger.Infof(format, v...)
	}
}

func (l *GologLogger) Warn(format string, v ...any) {
	if l.level <= LevelWarn {
		l.logger.Warnf(format, v...)
	}
}

func (l *GologLogger) Error(format string, v ...any) {
	if l.level <= LevelError {
		l.logger.Errorf(format, v...)
	}
}
