package logger

import (
	"io"
	"log"
	"os"
)

// Logger is a small leveled logger. Debug output is only emitted in verbose mode.
type Logger struct {
	verbose bool
	out     io.Writer
	logger  *log.Logger
}

func New(verbose bool) *Logger {
	return NewWithWriter(verbose, os.Stderr)
}

// NewWithWriter builds a Logger that writes every level to w.
func NewWithWriter(verbose bool, w io.Writer) *Logger {
	return &Logger{
		verbose: verbose,
		out:     w,
		logger:  log.New(w, "", log.LstdFlags),
	}
}

func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf("WARN", format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Verbose() {
		l.printf("DEBUG", format, args...)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.printf("ERROR", format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.printf("FATAL", format, args...)
	os.Exit(1)
}

// printf is a no-op on a nil Logger so library code can log unconditionally.
func (l *Logger) printf(level, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.logger.Printf("["+level+"] "+format, args...)
}
