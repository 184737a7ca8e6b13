// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c3fleet/c3fleet/lib/clock"
	"github.com/c3fleet/c3fleet/provider"
)

// Provider is the slice of the workload API the supervisor needs.
// *provider.Client implements it.
type Provider interface {
	Launch(ctx context.Context, workloadType string, expires time.Time) (provider.Workload, error)
	Stop(ctx context.Context, workloadID string) (provider.StopReceipt, error)
	RunningWorkloads(ctx context.Context) ([]provider.Workload, error)
	CheckHealth(ctx context.Context, hostname string) error
}

// Death causes, used as the deaths_total metric label and the dead
// event reason.
const (
	reasonUnhealthy = "unhealthy"
	reasonVanished  = "vanished"
)

// death is a monitor's (or the reconcile sweep's) notification that a
// node is beyond recovery. The control loop is the sole consumer.
type death struct {
	node   Node
	reason string
}

// Config carries the supervisor's collaborators and tuning.
type Config struct {
	// Provider is the workload API client. Required.
	Provider Provider

	// TargetNodes is the fleet size to provision and hold.
	TargetNodes int

	// NodeType selects what to launch: TypeFast, TypeLarge, or
	// PolicyAlternate to rotate between the two.
	NodeType string

	// KeepRunning keeps the fleet at target by replacing dead nodes.
	// When false a dead node just shrinks the fleet.
	KeepRunning bool

	// NoRemove leaves workloads running at shutdown instead of
	// stopping them.
	NoRemove bool

	// PollInterval is the spacing of steady-state health checks and
	// of reconcile sweeps.
	PollInterval time.Duration

	// RuntimeLease is how far in the future launched workloads are
	// set to expire.
	RuntimeLease time.Duration

	// BootDelay is the grace period between launching a node and its
	// first health check.
	BootDelay time.Duration

	// CheckTimeout bounds each health check and the reconcile
	// listing call.
	CheckTimeout time.Duration

	// LaunchPacing is the pause between consecutive launches during
	// the initial fill. Zero disables pacing.
	LaunchPacing time.Duration

	// RunID tags published events with the supervisor process run.
	RunID string

	// EventsPrefix is the leading token of event subjects.
	EventsPrefix string

	// Clock is the time source. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational logging. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics receives instrumentation. Defaults to a set registered
	// on a private registry, for callers that don't serve metrics.
	Metrics *Metrics

	// Events receives lifecycle events. Nil disables publishing.
	Events Sink
}

// Supervisor provisions the fleet and holds it at target until its
// context is canceled.
type Supervisor struct {
	cfg      Config
	provider Provider
	clock    clock.Clock
	logger   *slog.Logger
	metrics  *Metrics
	sink     Sink

	registry   *Registry
	alternator Alternator

	// deaths carries notifications from monitors and the reconcile
	// sweep to the control loop. Capacity covers one pending death
	// per possible tracked node with room to spare, so senders that
	// hold no locks never block the loop.
	deaths chan death

	// wg tracks monitor goroutines so shutdown can wait for them to
	// halt before sweeping.
	wg sync.WaitGroup
}

// New validates the configuration and assembles a supervisor.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("fleet: Provider is required")
	}
	if cfg.TargetNodes < 1 {
		return nil, fmt.Errorf("fleet: TargetNodes must be at least 1, got %d", cfg.TargetNodes)
	}
	switch cfg.NodeType {
	case string(TypeFast), string(TypeLarge), PolicyAlternate:
	default:
		return nil, fmt.Errorf("fleet: unknown node type %q", cfg.NodeType)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("fleet: PollInterval must be positive, got %v", cfg.PollInterval)
	}
	if cfg.RuntimeLease <= 0 {
		return nil, fmt.Errorf("fleet: RuntimeLease must be positive, got %v", cfg.RuntimeLease)
	}
	if cfg.BootDelay <= 0 {
		return nil, fmt.Errorf("fleet: BootDelay must be positive, got %v", cfg.BootDelay)
	}
	if cfg.CheckTimeout <= 0 {
		return nil, fmt.Errorf("fleet: CheckTimeout must be positive, got %v", cfg.CheckTimeout)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Supervisor{
		cfg:      cfg,
		provider: cfg.Provider,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		sink:     cfg.Events,
		registry: NewRegistry(),
		deaths:   make(chan death, 2*cfg.TargetNodes),
	}, nil
}

// LiveCount returns the number of tracked nodes in a live status. The
// readiness endpoint compares it against the target.
func (s *Supervisor) LiveCount() int {
	return s.registry.LiveCount()
}

// Run provisions the initial fleet and supervises it until ctx is
// canceled, then stops the remaining workloads. It returns an error
// only when not a single initial launch succeeded; cancellation is a
// normal exit.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("Starting fleet",
		"target", s.cfg.TargetNodes,
		"node_type", s.cfg.NodeType,
		"poll_interval", s.cfg.PollInterval,
		"keep_running", s.cfg.KeepRunning)

	err := s.fill(ctx)
	if ctx.Err() != nil {
		s.shutdown()
		return nil
	}
	if err != nil {
		return err
	}

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutdown requested")
			s.shutdown()
			return nil
		case d := <-s.deaths:
			s.handleDeath(ctx, d)
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// handleDeath retires a dead node and, when the fleet keeps itself at
// target, launches its replacement. The registry removal arbitrates
// duplicate notifications: only the remover proceeds.
func (s *Supervisor) handleDeath(ctx context.Context, d death) {
	if !s.registry.Remove(d.node.WorkloadID) {
		return
	}
	s.syncNodeGauge()
	live := s.registry.LiveCount()
	s.logger.Info("Node retired",
		"workload", d.node.WorkloadID,
		"reason", d.reason,
		"live", live,
		"target", s.cfg.TargetNodes)

	if !s.cfg.KeepRunning {
		s.logger.Info("Not replacing dead node", "live", live)
		return
	}
	if ctx.Err() != nil {
		return
	}
	replacement, err := s.launch(ctx)
	if err != nil {
		s.logger.Error("Replacement launch failed",
			"replaces", d.node.WorkloadID,
			"error", err)
		return
	}
	s.metrics.NodeReplaced()
	event := s.nodeEvent(EventReplaced, replacement)
	event.Replaces = d.node.WorkloadID
	s.publishEvent(ctx, event)
	s.logger.Info("Replacement launched",
		"workload", replacement.WorkloadID,
		"replaces", d.node.WorkloadID)
}

// syncNodeGauge refreshes the per-status node gauge from the registry.
func (s *Supervisor) syncNodeGauge() {
	s.metrics.SetNodeCounts(s.registry.StatusCounts())
}
