// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"time"
)

// stopSweepTimeout bounds the whole shutdown stop sweep. The sweep
// runs on a fresh context because the run context is already canceled
// by the time it starts.
const stopSweepTimeout = 30 * time.Second

// shutdown waits for every monitor to halt, then disposes of the
// remaining workloads.
func (s *Supervisor) shutdown() {
	s.logger.Info("Waiting for monitors to halt")
	s.wg.Wait()
	s.stopSweep()
}

// stopSweep stops every tracked workload, unless the fleet is
// configured to be left running. Nodes whose death path already
// stopped them are skipped; dead nodes whose stop call failed get one
// more attempt here.
func (s *Supervisor) stopSweep() {
	nodes := s.registry.List()
	if len(nodes) == 0 {
		s.logger.Info("Shutdown complete", "stopped", 0)
		return
	}

	if s.cfg.NoRemove {
		for _, node := range nodes {
			s.logger.Info("Leaving workload running",
				"workload", node.WorkloadID,
				"hostname", node.Hostname,
				"status", node.Status)
		}
		s.logger.Info("Fleet left running", "nodes", len(nodes))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopSweepTimeout)
	defer cancel()

	stopped := 0
	for _, node := range nodes {
		if node.Status == StatusStopped {
			s.registry.Remove(node.WorkloadID)
			continue
		}
		logger := s.logger.With("workload", node.WorkloadID)
		if s.stopNode(ctx, node, logger) {
			s.registry.Remove(node.WorkloadID)
			stopped++
		}
	}
	s.syncNodeGauge()

	if remaining := s.registry.Len(); remaining > 0 {
		s.logger.Error("Some workloads could not be stopped",
			"remaining", remaining)
	}
	s.logger.Info("Shutdown complete", "stopped", stopped)
}
