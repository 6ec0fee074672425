package logger

import (
	"fmt"
	"sync"
	"testing"
)

// TestLogger forwards log lines to testing.T and keeps them for assertions
type TestLogger struct {
	T *testing.T

	mu      *sync.Mutex
	entries *[]string
}

// NewTestLogger creates a new test logger
func NewTestLogger(t *testing.T) Logger {
	return &TestLogger{T: t, mu: &sync.Mutex{}, entries: &[]string{}}
}

// NewMockLogger creates a simple logger for use in tests
// It can be called with or without a testing.T parameter
func NewMockLogger(t ...*testing.T) Logger {
	if len(t) > 0 {
		return NewTestLogger(t[0])
	}
	return NewTestLogger(nil)
}

func (l *TestLogger) record(level, msg string) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	l.mu.Lock()
	*l.entries = append(*l.entries, line)
	l.mu.Unlock()
	if l.T != nil {
		l.T.Log(line)
	}
}

// Entries returns every line logged so far, including those from derived loggers
func (l *TestLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(*l.entries))
	copy(out, *l.entries)
	return out
}

func (l *TestLogger) Debug(msg string) { l.record("DEBUG", msg) }
func (l *TestLogger) Info(msg string)  { l.record("INFO", msg) }
func (l *TestLogger) Warn(msg string)  { l.record("WARN", msg) }
func (l *TestLogger) Error(msg string) { l.record("ERROR", msg) }
func (l *TestLogger) Fatal(msg string) { l.record("FATAL", msg) }

// WithField returns the same logger; fields are not recorded
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l
}

// WithFields returns the same logger; fields are not recorded
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return l
}
