// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/c3fleet/c3fleet/events"
	"github.com/c3fleet/c3fleet/fleet"
	"github.com/c3fleet/c3fleet/lib/clock"
	"github.com/c3fleet/c3fleet/lib/config"
	"github.com/c3fleet/c3fleet/lib/process"
	"github.com/c3fleet/c3fleet/lib/version"
	"github.com/c3fleet/c3fleet/provider"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// flagValues holds parsed command-line values before they are folded
// into the effective config. Only flags the user actually set override
// the file and environment layers.
type flagValues struct {
	nodes        int
	nodeType     string
	keepRunning  bool
	noRemove     bool
	poll         time.Duration
	runtime      time.Duration
	bootDelay    time.Duration
	checkTimeout time.Duration
	apiURL       string
	metricsAddr  string
	eventsURL    string
	eventsPrefix string
	configPath   string
	debug        bool
}

// newFlagSet registers the c3fleet flags. Defaults mirror the config
// defaults so --help shows the effective values.
func newFlagSet(flags *flagValues, defaults *config.Config) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("c3fleet", pflag.ContinueOnError)
	flagSet.IntVar(&flags.nodes, "nodes", defaults.Nodes, "number of nodes to provision and hold")
	flagSet.StringVar(&flags.nodeType, "type", defaults.NodeType, `node type: "fast", "large", or "alternate"`)
	flagSet.BoolVar(&flags.keepRunning, "keep-running", defaults.KeepRunning, "replace dead nodes to keep the fleet at target")
	flagSet.BoolVar(&flags.noRemove, "no-rm", defaults.NoRemove, "leave workloads running at shutdown")
	flagSet.DurationVar(&flags.poll, "poll", defaults.PollInterval, "health check and reconcile interval")
	flagSet.DurationVar(&flags.runtime, "runtime", defaults.RuntimeLease, "workload lease duration")
	flagSet.DurationVar(&flags.bootDelay, "boot-delay", defaults.BootDelay, "grace period before a new node's first health check")
	flagSet.DurationVar(&flags.checkTimeout, "check-timeout", defaults.CheckTimeout, "per health check timeout")
	flagSet.StringVar(&flags.apiURL, "api-url", defaults.APIBaseURL, "provider API base URL")
	flagSet.StringVar(&flags.metricsAddr, "metrics-addr", defaults.MetricsAddr, "serve /metrics, /live, /ready on this address (empty: disabled)")
	flagSet.StringVar(&flags.eventsURL, "events-url", defaults.EventsURL, "NATS URL for lifecycle events (empty: disabled)")
	flagSet.StringVar(&flags.eventsPrefix, "events-prefix", defaults.EventsPrefix, "subject prefix for lifecycle events")
	flagSet.StringVar(&flags.configPath, "config", "", "YAML config file")
	flagSet.BoolVar(&flags.debug, "debug", defaults.Debug, "enable debug logging")
	flagSet.Bool("version", false, "print version information and exit")
	return flagSet
}

// loadConfig resolves the effective configuration: defaults, then the
// config file, then the environment, then explicit flags.
func loadConfig(flagSet *pflag.FlagSet, flags *flagValues) (*config.Config, error) {
	cfg := config.Default()
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	if flags.configPath != "" {
		if err := cfg.ApplyFile(flags.configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnvironment(); err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg, flagSet, flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly-set flags over the config. A
// flag left at its default does not mask file or environment values.
func applyFlagOverrides(cfg *config.Config, flagSet *pflag.FlagSet, flags *flagValues) {
	if flagSet.Changed("nodes") {
		cfg.Nodes = flags.nodes
	}
	if flagSet.Changed("type") {
		cfg.NodeType = flags.nodeType
	}
	if flagSet.Changed("keep-running") {
		cfg.KeepRunning = flags.keepRunning
	}
	if flagSet.Changed("no-rm") {
		cfg.NoRemove = flags.noRemove
	}
	if flagSet.Changed("poll") {
		cfg.PollInterval = flags.poll
	}
	if flagSet.Changed("runtime") {
		cfg.RuntimeLease = flags.runtime
	}
	if flagSet.Changed("boot-delay") {
		cfg.BootDelay = flags.bootDelay
	}
	if flagSet.Changed("check-timeout") {
		cfg.CheckTimeout = flags.checkTimeout
	}
	if flagSet.Changed("api-url") {
		cfg.APIBaseURL = flags.apiURL
	}
	if flagSet.Changed("metrics-addr") {
		cfg.MetricsAddr = flags.metricsAddr
	}
	if flagSet.Changed("events-url") {
		cfg.EventsURL = flags.eventsURL
	}
	if flagSet.Changed("events-prefix") {
		cfg.EventsPrefix = flags.eventsPrefix
	}
	if flagSet.Changed("debug") {
		cfg.Debug = flags.debug
	}
}

func run() error {
	// Handle --version before flag parsing so it works regardless of
	// other arguments.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("c3fleet")
		return nil
	}

	var flags flagValues
	flagSet := newFlagSet(&flags, config.Default())
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion, _ := flagSet.GetBool("version"); showVersion {
		version.Print("c3fleet")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(flagSet, &flags)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runID := uuid.NewString()
	logger.Info("c3fleet starting",
		"version", version.Info(),
		"run_id", runID,
		"nodes", cfg.Nodes,
		"node_type", cfg.NodeType,
		"api_url", cfg.APIBaseURL,
		"keep_running", cfg.KeepRunning)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := provider.NewClient(provider.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := fleet.NewMetrics(registry)

	var sink fleet.Sink
	if cfg.EventsURL != "" {
		publisher, err := events.NewPublisher(cfg.EventsURL, logger)
		if err != nil {
			return fmt.Errorf("connecting event publisher: %w", err)
		}
		defer publisher.Close()
		sink = publisher
	}

	supervisor, err := fleet.New(fleet.Config{
		Provider:     client,
		TargetNodes:  cfg.Nodes,
		NodeType:     cfg.NodeType,
		KeepRunning:  cfg.KeepRunning,
		NoRemove:     cfg.NoRemove,
		PollInterval: cfg.PollInterval,
		RuntimeLease: cfg.RuntimeLease,
		BootDelay:    cfg.BootDelay,
		CheckTimeout: cfg.CheckTimeout,
		LaunchPacing: cfg.LaunchPacing,
		RunID:        runID,
		EventsPrefix: cfg.EventsPrefix,
		Clock:        clock.Real(),
		Logger:       logger,
		Metrics:      metrics,
		Events:       sink,
	})
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		shutdownMetrics, err := serveMetrics(cfg, registry, supervisor, logger)
		if err != nil {
			return err
		}
		defer shutdownMetrics()
	}

	return supervisor.Run(ctx)
}
