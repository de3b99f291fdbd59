package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		" DEBUG ": log.DebugLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"info":    log.InfoLevel,
		"":        log.InfoLevel,
		"verbose": log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsDebug(t *testing.T) {
	t.Setenv(envLevel, "debug")
	if !IsDebug() {
		t.Fatal("IsDebug() = false with level debug")
	}
	t.Setenv(envLevel, "info")
	if IsDebug() {
		t.Fatal("IsDebug() = true with level info")
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv(envLevel, "debug")
	t.Setenv(envPrefix, "")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Debug("lifted", "inst", "addi")
	if err := lg.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ppcil", "lifted", "inst=addi"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNewLoggerWithWriterFiltersLevel(t *testing.T) {
	t.Setenv(envLevel, "error")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info message written at error level: %q", buf.String())
	}
}
