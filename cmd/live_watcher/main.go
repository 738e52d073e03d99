// Live watcher follows the collector's websocket feed and prints every sample.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NotCoffee418/slimmemeter/pkg/livefeed"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := logging.Configure(logging.LogConfig{Output: "stderr"}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Set the host:port from env var METER_COLLECTOR_HOST
	host := os.Getenv("METER_COLLECTOR_HOST")
	if host == "" {
		host = "raspberrypi.local:9039"
	}

	// Subscribe to websocket with revive
	if err := livefeed.StartListener(ctx, host, handleSample); err != nil {
		logging.WithComponent("live_watcher").WithError(err).Fatal("Live feed unavailable")
	}
}

func handleSample(sample *types.Sample) {
	fmt.Print(sample.Report())
}
