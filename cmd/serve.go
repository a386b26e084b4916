// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/shbatm/finitude/internal/config"
	"github.com/shbatm/finitude/internal/exporter"
	"github.com/shbatm/finitude/internal/monitor"
	"github.com/shbatm/finitude/internal/store"
)

var (
	cfgFile  string
	logLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Monitor the bus and export device state to Prometheus",
	Long: `Listen to every configured bus stream, decode frames into per-device
state, and serve it at /metrics on the configured port.

Stream loss is never fatal: a listener that loses its device keeps
retrying with backoff, and the exporter keeps serving the last-known
state. Staleness is visible through the
finitude_device_last_seen_timestamp_seconds metric.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "finitude.yml", "Configuration file")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger(logLevel)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config %s: %w", cfgFile, err)
	}
	config.Normalize(cfg)
	log.Info("configuration loaded", "file", cfgFile, "listeners", len(cfg.Listeners))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := exporter.NewPipelineMetrics(registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var stores []exporter.ListenerStore
	for name, url := range cfg.Listeners {
		st := store.New()
		stores = append(stores, exporter.ListenerStore{Name: name, Store: st})
		mon := monitor.New(name, url, cfg.Baud, st, metrics, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			mon.Run(ctx)
		}()
	}
	registry.MustRegister(exporter.NewCollector(stores...))

	err = exporter.Serve(ctx, fmt.Sprintf(":%d", cfg.Port), registry, log)
	cancel()
	wg.Wait()
	return err
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
