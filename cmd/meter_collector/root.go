package main

import (
	"fmt"

	"github.com/NotCoffee418/slimmemeter/pkg/config"
	"github.com/NotCoffee418/slimmemeter/pkg/version"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	device   string
	speed    uint
	parity   string
	bits     uint
	stopBits uint
	dbDir    string
	verbose  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:          "meter_collector",
	Short:        "Collect DSMR P1 telegrams into 5 minute samples",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadMeterCollectorConfig(cfgFile); err != nil {
			return fmt.Errorf("failed to load meter collector config: %w", err)
		}
		cfg := config.ActiveMeterCollectorConfig
		applyFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "version: %s\ncommit: %s\nbuilt: %s\n", version.Version, version.Commit, version.BuildDate)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", config.DefaultMeterCollectorConfigPath(), "Path to configuration file")
	flags.StringVarP(&device, "device", "d", "", "Serial device of the P1 port")
	flags.UintVarP(&speed, "speed", "s", 0, "Baud rate")
	flags.StringVarP(&parity, "parity", "p", "", "Parity: none, even or odd")
	flags.UintVarP(&bits, "bits", "b", 0, "Data bits")
	flags.UintVarP(&stopBits, "stopbits", "t", 0, "Stop bits")
	flags.StringVar(&dbDir, "dbdir", "", "Directory of the sample database")
	flags.StringVar(&dbDir, "db-directory", "", "Alias of --dbdir")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print a report for every delivered sample (toggle with SIGUSR1)")
	flags.StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(versionCmd)
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.MeterCollectorConfig) {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = device
	}
	if flags.Changed("speed") {
		cfg.Speed = speed
	}
	if flags.Changed("parity") {
		cfg.Parity = parity
	}
	if flags.Changed("bits") {
		cfg.Bits = bits
	}
	if flags.Changed("stopbits") {
		cfg.StopBits = stopBits
	}
	if flags.Changed("dbdir") || flags.Changed("db-directory") {
		cfg.DbDirectory = dbDir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
}
