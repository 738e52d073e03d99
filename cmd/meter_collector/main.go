// Meter collector reads the P1 port, aggregates telegrams into 5 minute
// samples and stores them. Delivered samples are broadcast on /ws.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/aggregator"
	"github.com/NotCoffee418/slimmemeter/pkg/config"
	"github.com/NotCoffee418/slimmemeter/pkg/ingest"
	"github.com/NotCoffee418/slimmemeter/pkg/livefeed"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/meterdb"
	"github.com/NotCoffee418/slimmemeter/pkg/metrics"
	"github.com/NotCoffee418/slimmemeter/pkg/pathing"
	"github.com/NotCoffee418/slimmemeter/pkg/port_reader"
	"github.com/NotCoffee418/slimmemeter/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.MeterCollectorConfig) error {
	if err := logging.Configure(cfg.Log); err != nil {
		return err
	}
	log := logging.WithComponent("meter_collector")
	log.WithFields(logrus.Fields{
		"version":      version.Version,
		"device":       cfg.Device,
		"speed":        cfg.Speed,
		"parity":       cfg.Parity,
		"bits":         cfg.Bits,
		"stopbits":     cfg.StopBits,
		"db_directory": cfg.DbDirectory,
		"verbose":      cfg.Verbose,
	}).Info("Starting meter collector")

	// Initialize database
	if err := pathing.EnsureDir(cfg.DbDirectory); err != nil {
		return err
	}
	store, err := meterdb.InitializeDatabase(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)

	hub := livefeed.NewHub()
	defer hub.Close()

	session := ingest.NewSession(aggregator.NewRollupSink(store, cfg.RawRetentionDays), ingest.Options{
		MaxSinkFailures: cfg.MaxSinkFailures,
		MaxParseErrors:  cfg.MaxParseErrors,
		Verbose:         cfg.Verbose,
		OnDelivered:     hub.Publish,
	})

	// SIGUSR1 toggles the per-sample report
	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		for {
			select {
			case <-usr1:
				if session.ToggleVerbose() {
					log.Info("Enable verbose mode")
				} else {
					log.Info("Disable verbose mode")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if cfg.ListenPort != 0 {
		server := &http.Server{
			Addr:              cfg.ListenHost(),
			Handler:           hub.Handler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("Starting live feed on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Live feed server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	reader, err := port_reader.NewP1Reader(cfg)
	if err != nil {
		return err
	}
	if err := reader.Connect(); err != nil {
		return err
	}
	// Closing the port unblocks the pending read
	go func() {
		<-ctx.Done()
		reader.Disconnect()
	}()
	defer reader.Disconnect()

	err = session.Run(ctx, reader)

	// Hand over what was collected so far
	session.Flush()
	if drainErr := session.Drain(context.Background()); drainErr != nil {
		log.WithError(drainErr).Warn("Could not deliver the last samples")
	}
	if pending := session.Pending(); pending > 0 {
		log.WithField("pending", pending).Warn("Exiting with undelivered samples")
	}

	if errors.Is(err, context.Canceled) {
		log.Info("Shutting down")
		return nil
	}
	return err
}
