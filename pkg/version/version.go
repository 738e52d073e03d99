// Package version holds the release stamp printed by the collector.
package version

// Set with -ldflags "-X github.com/NotCoffee418/slimmemeter/pkg/version.Version=..." when releasing.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
