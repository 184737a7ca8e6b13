// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "time"

// NodeType selects which provider workload image a node runs.
type NodeType string

const (
	// TypeFast is the small, quick-start workload type.
	TypeFast NodeType = "fast"
	// TypeLarge is the big-model workload type.
	TypeLarge NodeType = "large"
)

// workloadPrefix is prepended to a NodeType to form the provider's
// workload type string.
const workloadPrefix = "ollama_webui:"

// WorkloadType returns the provider workload type string for the node
// type, e.g. "ollama_webui:fast".
func (t NodeType) WorkloadType() string {
	return workloadPrefix + string(t)
}

// NodeStatus is a node's position in the health lifecycle.
type NodeStatus string

const (
	// StatusBooting means the node was launched but has not yet
	// passed its first health check.
	StatusBooting NodeStatus = "booting"
	// StatusHealthy means the most recent health check succeeded.
	StatusHealthy NodeStatus = "healthy"
	// StatusUnhealthy means at least one check failed since the node
	// was last healthy, but it has strikes left.
	StatusUnhealthy NodeStatus = "unhealthy"
	// StatusDead means the node is beyond recovery: it struck out,
	// never booted, or vanished from the provider listing. Dead nodes
	// whose stop call failed stay dead so the shutdown sweep retries.
	StatusDead NodeStatus = "dead"
	// StatusStopped means a stop call for the node succeeded.
	StatusStopped NodeStatus = "stopped"
)

// Live reports whether the status is a running state, one the health
// monitor still cares about. Dead and stopped are terminal.
func (s NodeStatus) Live() bool {
	switch s {
	case StatusBooting, StatusHealthy, StatusUnhealthy:
		return true
	}
	return false
}

// Node is a snapshot of one tracked compute node. The authoritative
// copy lives in the Registry; methods there mutate it under lock and
// hand out copies.
type Node struct {
	// WorkloadID is the provider's identifier, used for stop calls
	// and for matching against workload listings.
	WorkloadID string
	// Hostname is the node's address for health checks.
	Hostname string
	// Type is the node type the node was launched as.
	Type NodeType
	// Status is the node's position in the lifecycle.
	Status NodeStatus
	// Failures counts consecutive failed health checks since the
	// last success. Reset on success.
	Failures int
	// LaunchedAt is the clock time the node was provisioned.
	LaunchedAt time.Time
	// Expires is the Unix time the provider lease runs out.
	Expires int64
}
