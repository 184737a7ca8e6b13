// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

// Package events publishes fleet lifecycle events over NATS.
//
// The publisher is a thin adapter: event construction, subjects, and
// payload encoding live with the fleet supervisor, which treats this
// package as a best-effort sink. Losing the event stream never affects
// fleet operation.
package events
