package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileLogger_WritesAboveMinLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	log, err := NewFileLogger(path, Info, false)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	log.Debug("should not appear")
	log.Info("hello %d", 42)
	log.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "should not appear") {
		t.Error("DEBUG line should have been filtered out below INFO")
	}
	if !strings.Contains(content, "hello 42") {
		t.Errorf("expected formatted INFO line, got: %s", content)
	}
	if !strings.Contains(content, "[INFO]") {
		t.Errorf("expected level tag [INFO], got: %s", content)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	log, err := NewFileLogger(path, Info, false)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestSetMinLevel_ChangesFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	log, err := NewFileLogger(path, Warn, false)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer log.Close()

	log.Info("filtered")
	log.SetMinLevel(Trace)
	log.Info("visible")

	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "filtered") {
		t.Error("line logged before SetMinLevel should have been filtered")
	}
	if !strings.Contains(content, "visible") {
		t.Error("line logged after SetMinLevel(Trace) should appear")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":    Trace,
		"debug":    Debug,
		"info":     Info,
		"warn":     Warn,
		"warning":  Warn,
		"error":    Error,
		"critical": Critical,
		"bogus":    Info,
	}
	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}
