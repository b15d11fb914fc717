package obs

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/pion/logging"
)

var (
	levelNames = map[logging.LogLevel]string{
		logging.LogLevelError: "ERROR",
		logging.LogLevelWarn:  "WARN",
		logging.LogLevelInfo:  "INFO",
		logging.LogLevelDebug: "DEBUG",
		logging.LogLevelTrace: "TRACE",
	}
	levelColors = map[logging.LogLevel]*color.Color{
		logging.LogLevelError: color.New(color.FgRed, color.Bold),
		logging.LogLevelWarn:  color.New(color.FgYellow),
		logging.LogLevelInfo:  color.New(color.FgGreen),
		logging.LogLevelDebug: color.New(color.FgCyan),
		logging.LogLevelTrace: color.New(color.FgMagenta),
	}
)

// ColorLoggerFactory builds leveled, scope-tagged console loggers with
// colored level tags. Color degrades to plain text automatically when
// the output is not a terminal.
type ColorLoggerFactory struct {
	// Level is the most verbose level that still gets written.
	Level logging.LogLevel

	// Writer receives the log lines. Nil means stdout.
	Writer io.Writer

	mu sync.Mutex // serializes lines across all scopes
}

var _ logging.LoggerFactory = (*ColorLoggerFactory)(nil)

// NewColorLoggerFactory builds a factory writing to stdout.
func NewColorLoggerFactory(level logging.LogLevel) *ColorLoggerFactory {
	return &ColorLoggerFactory{Level: level}
}

// NewLogger implements logging.LoggerFactory.
func (f *ColorLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &colorLogger{factory: f, scope: scope}
}

type colorLogger struct {
	factory *ColorLoggerFactory
	scope   string
}

var _ logging.LeveledLogger = (*colorLogger)(nil)

func (l *colorLogger) log(level logging.LogLevel, msg string) {
	f := l.factory
	if level > f.Level {
		return
	}
	w := f.Writer
	if w == nil {
		w = os.Stdout
	}
	tag := levelColors[level].Sprint(levelNames[level])

	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(w, "%s %s %s: %s\n",
		time.Now().Format("2006/01/02 15:04:05"), tag, l.scope, msg)
}

func (l *colorLogger) logf(level logging.LogLevel, format string, args ...interface{}) {
	if level > l.factory.Level {
		return
	}
	l.log(level, fmt.Sprintf(format, args...))
}

func (l *colorLogger) Trace(msg string) { l.log(logging.LogLevelTrace, msg) }
func (l *colorLogger) Tracef(format string, args ...interface{}) {
	l.logf(logging.LogLevelTrace, format, args...)
}

func (l *colorLogger) Debug(msg string) { l.log(logging.LogLevelDebug, msg) }
func (l *colorLogger) Debugf(format string, args ...interface{}) {
	l.logf(logging.LogLevelDebug, format, args...)
}

func (l *colorLogger) Info(msg string) { l.log(logging.LogLevelInfo, msg) }
func (l *colorLogger) Infof(format string, args ...interface{}) {
	l.logf(logging.LogLevelInfo, format, args...)
}

func (l *colorLogger) Warn(msg string) { l.log(logging.LogLevelWarn, msg) }
func (l *colorLogger) Warnf(format string, args ...interface{}) {
	l.logf(logging.LogLevelWarn, format, args...)
}

func (l *colorLogger) Error(msg string) { l.log(logging.LogLevelError, msg) }
func (l *colorLogger) Errorf(format string, args ...interface{}) {
	l.logf(logging.LogLevelError, format, args...)
}
