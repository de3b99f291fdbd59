// Package logging builds the leveled console logger used by the lifter and
// the harness. It is configured from the environment:
//
//	PPCIL_LOG_LEVEL    debug, info, warn, error (default: info)
//	PPCIL_LOG_PREFIX   message prefix (default: "ppcil ")
//	PPCIL_LOG_TO_FILE  "1" writes to a timestamped file instead of stderr
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	envLevel  = "PPCIL_LOG_LEVEL"
	envPrefix = "PPCIL_LOG_PREFIX"
	envToFile = "PPCIL_LOG_TO_FILE"
)

// LoggerCloser is a logger that owns its output.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the output if the logger opened it.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// ParseLevel maps a level name to a log level. Unknown names are info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// NewLoggerWithWriter returns a logger writing to w. If w is a Closer the
// returned logger closes it.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lg.SetLevel(ParseLevel(os.Getenv(envLevel)))

	prefix := os.Getenv(envPrefix)
	if prefix == "" {
		prefix = "ppcil "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr && w != os.Stdout {
		closer = c
	}
	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger returns a logger configured from the environment.
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv(envToFile) == "1" {
		name := fmt.Sprintf("ppcil-%s-debug.log", time.Now().Format("20060102-150405"))
		// Falls back to stderr when the file cannot be created.
		if f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644); err == nil {
			output = f
		}
	}
	return NewLoggerWithWriter(output)
}

// IsDebug reports whether PPCIL_LOG_LEVEL selects debug output.
func IsDebug() bool {
	return ParseLevel(os.Getenv(envLevel)) == log.DebugLevel
}
