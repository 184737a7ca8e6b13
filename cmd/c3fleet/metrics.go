// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c3fleet/c3fleet/fleet"
	"github.com/c3fleet/c3fleet/lib/config"
)

// metricsShutdownTimeout bounds the drain of in-flight scrapes when
// the process exits.
const metricsShutdownTimeout = 5 * time.Second

// serveMetrics starts the operational HTTP endpoint: Prometheus
// metrics plus liveness and readiness probes. The listener binds
// synchronously so a bad address fails startup instead of surfacing
// later as an unreachable scrape target. The returned function shuts
// the server down.
func serveMetrics(cfg *config.Config, registry *prometheus.Registry, supervisor *fleet.Supervisor, logger *slog.Logger) (func(), error) {
	listener, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("binding metrics listener on %s: %w", cfg.MetricsAddr, err)
	}

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))
	target := cfg.Nodes
	health.AddReadinessCheck("fleet-at-target", func() error {
		if live := supervisor.LiveCount(); live < target {
			return fmt.Errorf("%d of %d nodes live", live, target)
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	logger.Info("Metrics endpoint listening", "address", listener.Addr())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown incomplete", "error", err)
		}
	}, nil
}
