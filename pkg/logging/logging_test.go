package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	entry := WithComponent("ingest")
	if v, ok := entry.Data["component"]; !ok || v != "ingest" {
		t.Fatalf("component field missing: %v", entry.Data)
	}
}

func TestConfigureInvalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	l := newLogger()
	if err := configure(l, LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if err := configure(l, LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestConfigureEnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	l := newLogger()
	if err := configure(l, LogConfig{Level: "error"}); err != nil {
		t.Fatal(err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s, want debug", l.GetLevel())
	}
}

func TestConfigureJsonFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "collector.log")

	l := newLogger()
	if err := configure(l, LogConfig{Level: "info", Format: "json", Output: path}); err != nil {
		t.Fatal(err)
	}
	l.WithField("component", "test").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("log line is not json: %q", data)
	}
	if line["message"] != "hello" || line["component"] != "test" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestConfigureRotatingFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "rotating.log")

	l := newLogger()
	if err := configure(l, LogConfig{Output: path, MaxAgeDays: 7}); err != nil {
		t.Fatal(err)
	}
	l.Warn("rotated")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rotated") {
		t.Fatalf("log file missing message: %q", data)
	}
}
