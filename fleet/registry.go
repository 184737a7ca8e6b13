// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"sort"
	"sync"
)

// tracked pairs a node with the cancel function for its monitor
// goroutine.
type tracked struct {
	node   Node
	cancel context.CancelFunc
}

// Registry is the authoritative, mutex-guarded record of every node
// the supervisor currently tracks. Monitor goroutines, the reconcile
// sweep, and the control loop all read and mutate node state through
// it; each method is one atomic step of the health state machine.
//
// Terminal statuses are sticky: once a node is dead or stopped, the
// record methods refuse further transitions and report ok=false, so a
// monitor that lost a race with the reconcile sweep (or with shutdown)
// finds out and stands down.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]*tracked
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]*tracked)}
}

// Insert starts tracking a node. The cancel function halts the node's
// monitor and is invoked by Halt and Remove.
func (r *Registry) Insert(node Node, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[node.WorkloadID] = &tracked{node: node, cancel: cancel}
}

// Get returns a copy of the tracked node.
func (r *Registry) Get(id string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.nodes[id]
	if !ok {
		return Node{}, false
	}
	return t.node, true
}

// Remove stops tracking a node, cancelling its monitor. It reports
// whether the node was still tracked; the control loop uses this as
// the arbiter when a death could be delivered twice.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.nodes[id]
	if !ok {
		return false
	}
	t.cancel()
	delete(r.nodes, id)
	return true
}

// Halt cancels the node's monitor goroutine without removing the node.
// The reconcile sweep uses it to silence the monitor of a vanished
// node before declaring the death itself.
func (r *Registry) Halt(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.nodes[id]; ok {
		t.cancel()
	}
}

// RecordSuccess applies a passed health check: the node becomes
// healthy and its failure streak resets. The previous status is
// returned so the caller can detect a not-healthy to healthy edge.
// ok is false when the node is gone or already terminal.
func (r *Registry) RecordSuccess(id string) (prev NodeStatus, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, found := r.nodes[id]
	if !found || !t.node.Status.Live() {
		return "", false
	}
	prev = t.node.Status
	t.node.Status = StatusHealthy
	t.node.Failures = 0
	return prev, true
}

// RecordFailure applies a failed health check and returns the
// consecutive-failure count. unhealthy controls whether the node's
// status degrades to unhealthy; the boot-phase burst passes false to
// keep the node booting until it either passes a check or strikes
// out. ok is false when the node is gone or already terminal.
func (r *Registry) RecordFailure(id string, unhealthy bool) (failures int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, found := r.nodes[id]
	if !found || !t.node.Status.Live() {
		return 0, false
	}
	t.node.Failures++
	if unhealthy {
		t.node.Status = StatusUnhealthy
	}
	return t.node.Failures, true
}

// MarkDead transitions a live node to dead. It reports whether this
// call performed the transition: exactly one caller wins when the
// health monitor and the reconcile sweep race to declare the same
// death, and only the winner may emit the death downstream.
func (r *Registry) MarkDead(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.nodes[id]
	if !ok || !t.node.Status.Live() {
		return false
	}
	t.node.Status = StatusDead
	return true
}

// MarkStopped records that a stop call for the node succeeded.
func (r *Registry) MarkStopped(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.nodes[id]; ok {
		t.node.Status = StatusStopped
	}
}

// List returns a copy of every tracked node, ordered by workload ID.
func (r *Registry) List() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	nodes := make([]Node, 0, len(r.nodes))
	for _, t := range r.nodes {
		nodes = append(nodes, t.node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].WorkloadID < nodes[j].WorkloadID
	})
	return nodes
}

// Len returns the number of tracked nodes in any status.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// LiveCount returns the number of tracked nodes in a live status.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.nodes {
		if t.node.Status.Live() {
			n++
		}
	}
	return n
}

// StatusCounts returns the number of tracked nodes per status. Every
// status appears as a key so gauge updates reset stale series to zero.
func (r *Registry) StatusCounts() map[NodeStatus]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[NodeStatus]int{
		StatusBooting:   0,
		StatusHealthy:   0,
		StatusUnhealthy: 0,
		StatusDead:      0,
		StatusStopped:   0,
	}
	for _, t := range r.nodes {
		counts[t.node.Status]++
	}
	return counts
}
