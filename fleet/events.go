// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventKind names a node lifecycle transition.
type EventKind string

const (
	// EventLaunched fires when a workload launch succeeds.
	EventLaunched EventKind = "launched"
	// EventHealthy fires when a node passes a health check after not
	// being healthy: first boot and recovery, not every steady pass.
	EventHealthy EventKind = "healthy"
	// EventUnhealthy fires on every failed steady-state health check.
	EventUnhealthy EventKind = "unhealthy"
	// EventDead fires when a node is declared beyond recovery.
	EventDead EventKind = "dead"
	// EventReplaced fires when a replacement for a dead node launches.
	EventReplaced EventKind = "replaced"
	// EventStopped fires when a stop call for a node succeeds.
	EventStopped EventKind = "stopped"
)

// Event is the JSON payload published for a node lifecycle transition.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`
	// RunID identifies the supervisor process run, so one fleet's
	// events can be told apart from a restart's.
	RunID string `json:"run_id"`
	// Kind is the lifecycle transition.
	Kind EventKind `json:"kind"`
	// Workload is the provider workload ID of the subject node.
	Workload string `json:"workload"`
	// Hostname is the subject node's address.
	Hostname string `json:"hostname"`
	// Type is the subject node's type.
	Type string `json:"type,omitempty"`
	// Reason qualifies dead events: "unhealthy" or "vanished".
	Reason string `json:"reason,omitempty"`
	// Failures is the consecutive-failure count behind an unhealthy
	// or dead event.
	Failures int `json:"failures,omitempty"`
	// Replaces is the workload ID the subject node was launched to
	// replace. Set on replaced events only.
	Replaces string `json:"replaces,omitempty"`
	// Time is when the transition happened.
	Time time.Time `json:"time"`
}

// Sink receives serialized lifecycle events. Publish must be safe for
// concurrent use; delivery is best effort and errors are logged, never
// acted on.
type Sink interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}

// nodeEvent builds the common fields of an event about node.
func (s *Supervisor) nodeEvent(kind EventKind, node Node) Event {
	return Event{
		ID:       uuid.NewString(),
		RunID:    s.cfg.RunID,
		Kind:     kind,
		Workload: node.WorkloadID,
		Hostname: node.Hostname,
		Type:     string(node.Type),
		Time:     s.clock.Now(),
	}
}

// publishEvent sends an event to the sink, if one is configured.
// Failures are logged and swallowed: the event stream is advisory and
// must never stall the control loop.
func (s *Supervisor) publishEvent(ctx context.Context, event Event) {
	if s.sink == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("Failed to encode event",
			"kind", event.Kind,
			"workload", event.Workload,
			"error", err)
		return
	}
	subject := s.cfg.EventsPrefix + ".node." + string(event.Kind)
	if err := s.sink.Publish(ctx, subject, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			"subject", subject,
			"workload", event.Workload,
			"error", err)
	}
}
