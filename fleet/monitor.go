// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"log/slog"
)

const (
	// maxStrikes is how many consecutive failed checks a running node
	// survives. The check that reaches this count declares it dead.
	maxStrikes = 3
	// bootChecks is the size of the back-to-back check burst a
	// booting node gets to prove itself after the boot delay.
	bootChecks = 3
)

// runMonitor is the per-node health goroutine: boot delay, boot burst,
// then one check per poll interval until the node dies or the context
// is canceled. Cancellation at any suspension point is a silent halt,
// never a death.
func (s *Supervisor) runMonitor(ctx context.Context, node Node) {
	defer s.wg.Done()
	logger := s.logger.With(
		"workload", node.WorkloadID,
		"hostname", node.Hostname,
		"node_type", node.Type)
	logger.Info("Monitor started", "boot_delay", s.cfg.BootDelay)

	select {
	case <-ctx.Done():
		logger.Debug("Monitor halted during boot delay")
		return
	case <-s.clock.After(s.cfg.BootDelay):
	}

	if !s.bootNode(ctx, node, logger) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Monitor halted")
			return
		case <-s.clock.After(s.cfg.PollInterval):
		}

		err := s.checkNode(ctx, node)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			prev, ok := s.registry.RecordSuccess(node.WorkloadID)
			if !ok {
				return
			}
			if prev != StatusHealthy {
				logger.Info("Node recovered", "previous", prev)
				s.syncNodeGauge()
				s.publishEvent(ctx, s.nodeEvent(EventHealthy, node))
			}
			continue
		}

		failures, ok := s.registry.RecordFailure(node.WorkloadID, true)
		if !ok {
			return
		}
		logger.Warn("Health check failed",
			"failures", failures,
			"max", maxStrikes,
			"error", err)
		s.syncNodeGauge()
		event := s.nodeEvent(EventUnhealthy, node)
		event.Failures = failures
		s.publishEvent(ctx, event)
		if failures >= maxStrikes {
			s.killNode(ctx, node, reasonUnhealthy, failures, logger)
			return
		}
	}
}

// bootNode runs the boot burst: up to bootChecks back-to-back checks.
// The first success makes the node healthy; a clean sweep of failures
// kills it without it ever having run. Reports whether the node made
// it to healthy.
func (s *Supervisor) bootNode(ctx context.Context, node Node, logger *slog.Logger) bool {
	for attempt := 1; attempt <= bootChecks; attempt++ {
		err := s.checkNode(ctx, node)
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			logger.Warn("Boot health check failed",
				"attempt", attempt,
				"of", bootChecks,
				"error", err)
			if _, ok := s.registry.RecordFailure(node.WorkloadID, false); !ok {
				return false
			}
			continue
		}
		if _, ok := s.registry.RecordSuccess(node.WorkloadID); !ok {
			return false
		}
		logger.Info("Node healthy", "attempt", attempt)
		s.syncNodeGauge()
		s.publishEvent(ctx, s.nodeEvent(EventHealthy, node))
		return true
	}
	logger.Error("Node never became healthy", "attempts", bootChecks)
	s.killNode(ctx, node, reasonUnhealthy, bootChecks, logger)
	return false
}

// checkNode probes the node once, bounded by the check timeout. The
// probe metric is skipped when the monitor is being shut down, so a
// cancellation-induced failure doesn't masquerade as a real one.
func (s *Supervisor) checkNode(ctx context.Context, node Node) error {
	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()
	err := s.provider.CheckHealth(checkCtx, node.Hostname)
	if ctx.Err() == nil {
		s.metrics.HealthCheck(err == nil)
	}
	return err
}

// killNode declares the node dead, makes the one best-effort stop
// attempt, and notifies the control loop. The MarkDead transition
// arbitrates against the reconcile sweep: the loser returns without
// emitting anything.
func (s *Supervisor) killNode(ctx context.Context, node Node, reason string, failures int, logger *slog.Logger) {
	if !s.registry.MarkDead(node.WorkloadID) {
		return
	}
	logger.Error("Node dead", "reason", reason, "failures", failures)
	s.metrics.NodeDied(reason)
	s.syncNodeGauge()
	event := s.nodeEvent(EventDead, node)
	event.Reason = reason
	event.Failures = failures
	s.publishEvent(ctx, event)

	s.stopNode(ctx, node, logger)

	select {
	case s.deaths <- death{node: node, reason: reason}:
	case <-ctx.Done():
	}
}

// stopNode makes one stop call for the node. Success marks it stopped;
// failure leaves it dead so the shutdown sweep retries. Reports
// whether the workload was stopped.
func (s *Supervisor) stopNode(ctx context.Context, node Node, logger *slog.Logger) bool {
	receipt, err := s.provider.Stop(ctx, node.WorkloadID)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.StopFailed()
		}
		logger.Error("Failed to stop workload", "error", err)
		return false
	}
	s.registry.MarkStopped(node.WorkloadID)
	s.syncNodeGauge()
	logger.Info("Workload stopped",
		"stopped_at", receipt.Stopped,
		"refund", receipt.RefundAmount)
	s.publishEvent(ctx, s.nodeEvent(EventStopped, node))
	return true
}
