// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "context"

// reconcile compares the registry against the provider's running
// workloads. A tracked live node missing from the listing was killed
// out from under us: its monitor is halted and the death is declared
// here, with no stop call for a workload that no longer exists. A
// failed listing skips the sweep; monitors keep their own counsel on
// node health.
func (s *Supervisor) reconcile(ctx context.Context) {
	listCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	workloads, err := s.provider.RunningWorkloads(listCtx)
	cancel()
	if err != nil {
		s.logger.Warn("Workload listing failed, skipping sweep", "error", err)
		return
	}

	running := make(map[string]bool, len(workloads))
	for _, w := range workloads {
		running[w.ID] = true
	}

	for _, node := range s.registry.List() {
		if !node.Status.Live() || running[node.WorkloadID] {
			continue
		}
		s.registry.Halt(node.WorkloadID)
		if !s.registry.MarkDead(node.WorkloadID) {
			continue
		}
		s.logger.Error("Node vanished from provider listing",
			"workload", node.WorkloadID,
			"hostname", node.Hostname)
		s.metrics.NodeDied(reasonVanished)
		s.syncNodeGauge()
		event := s.nodeEvent(EventDead, node)
		event.Reason = reasonVanished
		s.publishEvent(ctx, event)

		// The control loop is also the caller here, so this send
		// must never block: channel capacity covers every tracked
		// node, and the registry never tracks more than the channel
		// allows for.
		select {
		case s.deaths <- death{node: node, reason: reasonVanished}:
		case <-ctx.Done():
			return
		}
	}
}
