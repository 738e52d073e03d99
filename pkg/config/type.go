package config

import "github.com/NotCoffee418/slimmemeter/pkg/logging"

type MeterCollectorConfig struct {
	// Serial line of the P1 port
	Device   string `toml:"device"`
	Speed    uint   `toml:"speed"`
	Parity   string `toml:"parity"`
	Bits     uint   `toml:"bits"`
	StopBits uint   `toml:"stopbits"`

	DbDirectory string `toml:"db_directory"`

	// Live feed and metrics. Port 0 disables the HTTP server.
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	MaxSinkFailures  int  `toml:"max_sink_failures"`
	MaxParseErrors   int  `toml:"max_parse_errors"`
	RawRetentionDays int  `toml:"raw_retention_days"`
	Verbose          bool `toml:"verbose"`

	Log logging.LogConfig `toml:"log"`
}
