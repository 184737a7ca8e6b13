// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// Package fleet implements the node-lifecycle supervisor: it
// provisions a fleet of compute nodes through the provider API, runs
// one health monitor per node, replaces nodes that die, and stops the
// fleet at shutdown.
//
// # Model
//
// The Supervisor owns a Registry of tracked nodes. Each node gets a
// monitor goroutine running the health state machine: a boot grace
// period, then an initial burst of up to three back-to-back checks,
// then one check per poll interval. Three consecutive failures declare
// the node dead.
//
// A dead node's monitor makes a single best-effort stop call and sends
// a death notification on the supervisor's channel. The control loop
// is the only consumer: it removes the node from the registry and,
// when the fleet is keeping itself at target, launches exactly one
// replacement. Concurrent deaths serialize through the channel, so the
// fleet never over- or under-replaces.
//
// A periodic reconcile sweep compares the registry against the
// provider's running-workload listing; tracked nodes missing from the
// listing are declared dead without a stop call.
//
// # Concurrency
//
// Monitors never touch each other's state. All node state lives in the
// Registry, whose operations are atomic under its mutex; terminal
// statuses are sticky, so a monitor racing the reconcile sweep cannot
// resurrect a node, and MarkDead arbitrates which of the two owns the
// death. Everything that sleeps does so on the injected clock or a
// context, so shutdown interrupts every monitor at its next suspension
// point and tests drive the whole state machine deterministically.
package fleet
