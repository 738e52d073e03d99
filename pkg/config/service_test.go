package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "meter_collector.toml")
	if err := LoadMeterCollectorConfig(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if *ActiveMeterCollectorConfig != *DefaultMeterCollectorConfig() {
		t.Fatalf("active config = %+v", ActiveMeterCollectorConfig)
	}

	// Reading the written file gives the same values back.
	ActiveMeterCollectorConfig = nil
	if err := LoadMeterCollectorConfig(path); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *ActiveMeterCollectorConfig != *DefaultMeterCollectorConfig() {
		t.Fatalf("reloaded config = %+v", ActiveMeterCollectorConfig)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter_collector.toml")
	data := `
device = "/dev/ttyAMA0"
speed = 9600
parity = "E"
bits = 7

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadMeterCollectorConfig(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := ActiveMeterCollectorConfig
	if cfg.Device != "/dev/ttyAMA0" || cfg.Speed != 9600 || cfg.Bits != 7 || cfg.Log.Level != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.StopBits != 1 || cfg.MaxSinkFailures != 9 || cfg.Log.Format != "text" {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meter_collector.toml")
	if err := os.WriteFile(path, []byte("speed = 1234\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadMeterCollectorConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	if err := os.WriteFile(path, []byte("speed = \"fast\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadMeterCollectorConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for a type error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*MeterCollectorConfig)
		valid  bool
	}{
		{"defaults", func(c *MeterCollectorConfig) {}, true},
		{"empty device", func(c *MeterCollectorConfig) { c.Device = "" }, false},
		{"odd speed", func(c *MeterCollectorConfig) { c.Speed = 100 }, false},
		{"parity letter", func(c *MeterCollectorConfig) { c.Parity = "o" }, true},
		{"bad parity", func(c *MeterCollectorConfig) { c.Parity = "mark" }, false},
		{"four bits", func(c *MeterCollectorConfig) { c.Bits = 4 }, false},
		{"three stopbits", func(c *MeterCollectorConfig) { c.StopBits = 3 }, false},
		{"no db directory", func(c *MeterCollectorConfig) { c.DbDirectory = "" }, false},
		{"port out of range", func(c *MeterCollectorConfig) { c.ListenPort = 70000 }, false},
		{"http disabled", func(c *MeterCollectorConfig) { c.ListenPort = 0 }, true},
		{"zero budget", func(c *MeterCollectorConfig) { c.MaxSinkFailures = 0 }, false},
		{"exit on first parse error", func(c *MeterCollectorConfig) { c.MaxParseErrors = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMeterCollectorConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.valid {
				t.Fatalf("valid = %v, err = %v", tt.valid, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error does not wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}

func TestParseParity(t *testing.T) {
	for in, want := range map[string]Parity{"N": ParityNone, "none": ParityNone, "Even": ParityEven, "o": ParityOdd} {
		got, err := ParseParity(in)
		if err != nil || got != want {
			t.Errorf("ParseParity(%q) = %q, %v", in, got, err)
		}
	}
}

func TestListenHost(t *testing.T) {
	cfg := DefaultMeterCollectorConfig()
	if got := cfg.ListenHost(); got != "0.0.0.0:9039" {
		t.Fatalf("got %s", got)
	}
	cfg.DbDirectory = "/data"
	if got := cfg.DatabasePath(); got != "/data/slimmemeter.db" {
		t.Fatalf("got %s", got)
	}
}
