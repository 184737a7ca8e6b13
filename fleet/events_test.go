// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"errors"
	"testing"
)

func TestEventSubjects(t *testing.T) {
	tf := newTestFleet(t, func(c *Config) { c.EventsPrefix = "ops.fleet" })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launchNode(t, ctx, tf)

	subjects := tf.sink.subjects()
	if len(subjects) != 1 {
		t.Fatalf("published %d events, want 1", len(subjects))
	}
	if want := "ops.fleet.node.launched"; subjects[0] != want {
		t.Errorf("subject = %q, want %q", subjects[0], want)
	}

	cancel()
	tf.sup.wg.Wait()
}

func TestEventPayload(t *testing.T) {
	tf := newTestFleet(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := launchNode(t, ctx, tf)

	record, ok := tf.sink.find(EventLaunched)
	if !ok {
		t.Fatal("no launched event published")
	}
	event := record.event
	if event.ID == "" {
		t.Error("event ID is empty")
	}
	if event.RunID != "run-test" {
		t.Errorf("RunID = %q, want %q", event.RunID, "run-test")
	}
	if event.Workload != node.WorkloadID {
		t.Errorf("Workload = %q, want %q", event.Workload, node.WorkloadID)
	}
	if event.Hostname != node.Hostname {
		t.Errorf("Hostname = %q, want %q", event.Hostname, node.Hostname)
	}
	if event.Type != string(TypeFast) {
		t.Errorf("Type = %q, want %q", event.Type, TypeFast)
	}
	if !event.Time.Equal(epoch) {
		t.Errorf("Time = %v, want %v", event.Time, epoch)
	}

	cancel()
	tf.sup.wg.Wait()
}

func TestEventDistinctIDs(t *testing.T) {
	tf := newTestFleet(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launchNode(t, ctx, tf)
	launchNode(t, ctx, tf)

	records := tf.sink.subjects()
	if len(records) != 2 {
		t.Fatalf("published %d events, want 2", len(records))
	}
	a, _ := tf.sink.find(EventLaunched)
	tf.sink.mu.Lock()
	b := tf.sink.records[1]
	tf.sink.mu.Unlock()
	if a.event.ID == b.event.ID {
		t.Errorf("event IDs collide: %q", a.event.ID)
	}

	cancel()
	tf.sup.wg.Wait()
}

func TestEventPublishFailureTolerated(t *testing.T) {
	tf := newTestFleet(t, nil)
	tf.sink.publishErr = errors.New("fake: sink offline")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := launchNode(t, ctx, tf)

	// The launch carried on regardless of the sink failure.
	if _, ok := tf.sup.registry.Get(node.WorkloadID); !ok {
		t.Error("node not tracked after sink failure")
	}

	cancel()
	tf.sup.wg.Wait()
}

func TestNoSinkConfigured(t *testing.T) {
	tf := newTestFleet(t, func(c *Config) { c.Events = nil })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := launchNode(t, ctx, tf)
	if _, ok := tf.sup.registry.Get(node.WorkloadID); !ok {
		t.Error("node not tracked without a sink")
	}

	cancel()
	tf.sup.wg.Wait()
}
