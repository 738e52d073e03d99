package pathing

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func GetMeterDbPath(dataDir string) string {
	return filepath.Join(dataDir, "slimmemeter.db")
}

func GetDataDir() string {
	return "/var/lib/slimmemeter"
}

func GetConfigDir() string {
	return "/etc/slimmemeter"
}
