// Package log provides the leveled logger used throughout printd.
package log

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
)

// New creates a Logger instance. The prefix identifies the subsystem logging
// the message.
func New(w io.Writer, prefix string) *Logger {
	return &Logger{
		log.New(
			w,
			fmt.Sprintf("[%s] ", prefix),
			log.Ldate|log.Ltime|log.Lmicroseconds|log.LUTC|log.Lmsgprefix,
		),
	}
}

// Logger represents a logging object that writes output to an io.Writer. Each
// logging operation makes a single call to the Writer's Write method. Logger
// is thread-safe; it guarantees to serialize access to the Writer.
type Logger struct {
	*log.Logger
}

// Errorf prints an error log-level message.
func (l Logger) Errorf(msg string, args ...interface{}) {
	l.Printf("[ERROR] %s --- %s", caller(2), fmt.Sprintf(msg, args...))
}

// Warnf prints a warn log-level message.
func (l Logger) Warnf(msg string, args ...interface{}) {
	l.Printf("[WARN] %s --- %s", caller(2), fmt.Sprintf(msg, args...))
}

// Infof prints an info log-level message.
func (l Logger) Infof(msg string, args ...interface{}) {
	l.Printf("[INFO] %s --- %s", caller(2), fmt.Sprintf(msg, args...))
}

// caller resolves the calling file and line, shortened to at most the last
// two path segments.
func caller(depth int) string {
	_, file, line, ok := runtime.Caller(depth)
	if !ok {
		return "???:0"
	}
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}
	return fmt.Sprintf("%s:%d", file, line)
}
