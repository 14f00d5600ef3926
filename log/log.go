// Package log is the process-wide trace output of the SDK.
//
// Output is best effort: nothing in the SDK depends on a log call succeeding.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	level  = new(slog.LevelVar)
	logger = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("component", "vmci")
}

// SetOutput redirects all trace output to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// SetLevel accepts debug, info, warn or error.
func SetLevel(raw string) error {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info", "":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unsupported log level: %q", raw)
	}
	return nil
}

func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func output(lvl slog.Level, msg func() string) {
	l := Logger()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	l.Log(context.Background(), lvl, strings.TrimSuffix(msg(), "\n"))
}

func Debug(args ...interface{}) {
	output(slog.LevelDebug, func() string { return fmt.Sprint(args...) })
}

func Debugf(format string, args ...interface{}) {
	output(slog.LevelDebug, func() string { return fmt.Sprintf(format, args...) })
}

func Info(args ...interface{}) {
	output(slog.LevelInfo, func() string { return fmt.Sprint(args...) })
}

func Infof(format string, args ...interface{}) {
	output(slog.LevelInfo, func() string { return fmt.Sprintf(format, args...) })
}

func Warnf(format string, args ...interface{}) {
	output(slog.LevelWarn, func() string { return fmt.Sprintf(format, args...) })
}

func Errorf(format string, args ...interface{}) {
	output(slog.LevelError, func() string { return fmt.Sprintf(format, args...) })
}
