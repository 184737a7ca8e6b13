// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
)

// PolicyAlternate selects alternating node types instead of a fixed
// one.
const PolicyAlternate = "alternate"

// fill provisions the initial fleet. Launches run sequentially with
// LaunchPacing between them so the provider never sees a thundering
// herd. A partial fill is tolerated; when the fleet keeps itself at
// target, one top-up round retries the missing nodes. Only a fill with
// zero successes is an error.
func (s *Supervisor) fill(ctx context.Context) error {
	launched := s.launchBatch(ctx, s.cfg.TargetNodes)
	if ctx.Err() != nil {
		return nil
	}
	if launched == 0 {
		return fmt.Errorf("fleet fill: none of %d launches succeeded", s.cfg.TargetNodes)
	}
	if missing := s.cfg.TargetNodes - launched; missing > 0 && s.cfg.KeepRunning {
		s.logger.Warn("Initial fill incomplete, topping up",
			"launched", launched,
			"missing", missing)
		launched += s.launchBatch(ctx, missing)
	}
	s.logger.Info("Initial fleet provisioned",
		"nodes", launched,
		"target", s.cfg.TargetNodes)
	return nil
}

// launchBatch attempts n sequential launches and returns how many
// succeeded. Failures are logged and skipped; cancellation cuts the
// batch short.
func (s *Supervisor) launchBatch(ctx context.Context, n int) int {
	launched := 0
	for i := 0; i < n; i++ {
		if i > 0 && s.cfg.LaunchPacing > 0 {
			select {
			case <-s.clock.After(s.cfg.LaunchPacing):
			case <-ctx.Done():
				return launched
			}
		}
		if ctx.Err() != nil {
			return launched
		}
		if _, err := s.launch(ctx); err != nil {
			s.logger.Error("Launch failed",
				"attempt", i+1,
				"of", n,
				"error", err)
			continue
		}
		launched++
	}
	return launched
}

// launch provisions one node: a provider launch call, registry
// insertion, and a monitor goroutine. The returned node is the
// registry's initial snapshot.
func (s *Supervisor) launch(ctx context.Context) (Node, error) {
	nodeType := s.nextType()
	expires := s.clock.Now().Add(s.cfg.RuntimeLease)
	workload, err := s.provider.Launch(ctx, nodeType.WorkloadType(), expires)
	if err != nil {
		if ctx.Err() == nil {
			s.metrics.LaunchFailed()
		}
		return Node{}, fmt.Errorf("launching %s node: %w", nodeType, err)
	}
	node := Node{
		WorkloadID: workload.ID,
		Hostname:   workload.Hostname,
		Type:       nodeType,
		Status:     StatusBooting,
		LaunchedAt: s.clock.Now(),
		Expires:    workload.Expires,
	}
	monitorCtx, cancel := context.WithCancel(ctx)
	s.registry.Insert(node, cancel)
	s.metrics.NodeLaunched(nodeType)
	s.syncNodeGauge()
	s.publishEvent(ctx, s.nodeEvent(EventLaunched, node))
	s.logger.Info("Node launched",
		"workload", node.WorkloadID,
		"hostname", node.Hostname,
		"node_type", nodeType)

	s.wg.Add(1)
	go s.runMonitor(monitorCtx, node)
	return node, nil
}

// nextType resolves the configured node type policy for one launch.
func (s *Supervisor) nextType() NodeType {
	if s.cfg.NodeType == PolicyAlternate {
		return s.alternator.Next()
	}
	return NodeType(s.cfg.NodeType)
}
