package logx

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides structured key/value logging with a component name.
// All long-lived components receive a *Logger through their constructor.
type Logger struct {
	backend   *logrus.Logger
	component string
}

// NewLogger creates a logger for a component at the given level
// (trace|debug|info|warn|error).
func NewLogger(level, component string) *Logger {
	backend := logrus.New()
	backend.SetOutput(os.Stderr)
	backend.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	backend.SetLevel(parseLevel(level))

	return &Logger{
		backend:   backend,
		component: component,
	}
}

// SetLevel changes the logging level at runtime.
func (l *Logger) SetLevel(level string) {
	l.backend.SetLevel(parseLevel(level))
}

// SetOutput redirects log output, e.g. to a log file.
func (l *Logger) SetOutput(w io.Writer) {
	l.backend.SetOutput(w)
}

// WithComponent returns a logger that shares the backend but reports a
// different component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		backend:   l.backend,
		component: component,
	}
}

// Trace logs a message at trace level with key/value pairs.
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Trace(msg)
}

// Debug logs a message at debug level with key/value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

// Info logs a message at info level with key/value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Info(msg)
}

// Warn logs a message at warn level with key/value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Warn(msg)
}

// Error logs a message at error level with key/value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Error(msg)
}

// entry builds a logrus entry from variadic key/value pairs. A single
// map[string]interface{} argument is accepted as a field set directly.
func (l *Logger) entry(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{"component": l.component}

	if len(keysAndValues) == 1 {
		if m, ok := keysAndValues[0].(map[string]interface{}); ok {
			for k, v := range m {
				fields[k] = v
			}
			return l.backend.WithFields(fields)
		}
	}

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("field_%d", i/2)
		}
		fields[key] = keysAndValues[i+1]
	}

	return l.backend.WithFields(fields)
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
