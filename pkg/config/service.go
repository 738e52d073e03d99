package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/pathing"
)

var ErrInvalidConfig = errors.New("invalid configuration")

var ActiveMeterCollectorConfig *MeterCollectorConfig

var supportedSpeeds = []uint{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

func DefaultMeterCollectorConfigPath() string {
	return filepath.Join(pathing.GetConfigDir(), "meter_collector.toml")
}

func DefaultMeterCollectorConfig() *MeterCollectorConfig {
	return &MeterCollectorConfig{
		Device:           "/dev/ttyUSB0",
		Speed:            115200,
		Parity:           "none",
		Bits:             8,
		StopBits:         1,
		DbDirectory:      pathing.GetDataDir(),
		ListenAddress:    "0.0.0.0",
		ListenPort:       9039,
		MaxSinkFailures:  9,
		MaxParseErrors:   3,
		RawRetentionDays: 90,
		Log: logging.LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// LoadMeterCollectorConfig reads the config at configPath, writing the
// defaults there first when the file does not exist.
func LoadMeterCollectorConfig(configPath string) error {
	// Create default if not exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultMeterCollectorConfig()
		if err := pathing.EnsureDir(filepath.Dir(configPath)); err != nil {
			return err
		}
		cfgFile, err := os.Create(configPath)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(cfg); err != nil {
			return fmt.Errorf("write default config %s: %w", configPath, err)
		}
		ActiveMeterCollectorConfig = cfg
		return nil
	}

	// Load existing config, missing keys keep their defaults
	config := DefaultMeterCollectorConfig()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configPath, err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	ActiveMeterCollectorConfig = config
	return nil
}

// Validate checks the serial line settings and the budgets.
func (c *MeterCollectorConfig) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: device is empty", ErrInvalidConfig)
	}
	if !slices.Contains(supportedSpeeds, c.Speed) {
		return fmt.Errorf("%w: unsupported speed %d", ErrInvalidConfig, c.Speed)
	}
	if _, err := ParseParity(c.Parity); err != nil {
		return err
	}
	if c.Bits < 5 || c.Bits > 8 {
		return fmt.Errorf("%w: bits must be 5-8, got %d", ErrInvalidConfig, c.Bits)
	}
	if c.StopBits < 1 || c.StopBits > 2 {
		return fmt.Errorf("%w: stopbits must be 1 or 2, got %d", ErrInvalidConfig, c.StopBits)
	}
	if c.DbDirectory == "" {
		return fmt.Errorf("%w: db_directory is empty", ErrInvalidConfig)
	}
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: listen_port %d out of range", ErrInvalidConfig, c.ListenPort)
	}
	if c.MaxSinkFailures < 1 || c.MaxParseErrors < 1 || c.RawRetentionDays < 1 {
		return fmt.Errorf("%w: max_sink_failures, max_parse_errors and raw_retention_days must be positive", ErrInvalidConfig)
	}
	return nil
}

type Parity string

const (
	ParityNone Parity = "none"
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

// ParseParity accepts n/none, e/even and o/odd in any case.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "none":
		return ParityNone, nil
	case "e", "even":
		return ParityEven, nil
	case "o", "odd":
		return ParityOdd, nil
	}
	return "", fmt.Errorf("%w: unknown parity '%s'", ErrInvalidConfig, s)
}

// ListenHost is the address the HTTP server binds to.
func (c *MeterCollectorConfig) ListenHost() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.ListenPort))
}

func (c *MeterCollectorConfig) DatabasePath() string {
	return pathing.GetMeterDbPath(c.DbDirectory)
}
