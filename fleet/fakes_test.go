// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/c3fleet/c3fleet/lib/clock"
	"github.com/c3fleet/c3fleet/provider"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// errUnreachable scripts a failed health check.
var errUnreachable = errors.New("fake: connection refused")

// launchCall records one provider launch request.
type launchCall struct {
	workloadType string
	expires      time.Time
}

// fakeProvider is a scriptable in-memory workload API. Health check
// results are consumed per hostname from a queue, falling back to
// healthDefault, so a test can script "fail twice then recover".
// checkStarted, when set, receives one token as each check begins;
// healthGate, when set, blocks checks until it is closed or the
// check's context ends. Together they let a test cancel a monitor
// mid-check.
type fakeProvider struct {
	mu sync.Mutex

	launches    []launchCall
	launchErr   error
	launchQueue []error
	nextID      int

	stops   []string
	stopErr error

	listing    []provider.Workload
	listingErr error

	healthQueue   map[string][]error
	healthDefault error
	checks        map[string]int
	checkStarted  chan struct{}
	healthGate    chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		healthQueue: make(map[string][]error),
		checks:      make(map[string]int),
	}
}

func (f *fakeProvider) Launch(ctx context.Context, workloadType string, expires time.Time) (provider.Workload, error) {
	if err := ctx.Err(); err != nil {
		return provider.Workload{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launches = append(f.launches, launchCall{workloadType: workloadType, expires: expires})
	if len(f.launchQueue) > 0 {
		err := f.launchQueue[0]
		f.launchQueue = f.launchQueue[1:]
		if err != nil {
			return provider.Workload{}, err
		}
	} else if f.launchErr != nil {
		return provider.Workload{}, f.launchErr
	}
	f.nextID++
	return provider.Workload{
		ID:       fmt.Sprintf("wl-%03d", f.nextID),
		Hostname: fmt.Sprintf("node-%03d.example.com", f.nextID),
		Type:     workloadType,
		Expires:  expires.Unix(),
	}, nil
}

func (f *fakeProvider) Stop(ctx context.Context, workloadID string) (provider.StopReceipt, error) {
	if err := ctx.Err(); err != nil {
		return provider.StopReceipt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, workloadID)
	if f.stopErr != nil {
		return provider.StopReceipt{}, f.stopErr
	}
	return provider.StopReceipt{Stopped: 1, RefundAmount: 0.5}, nil
}

func (f *fakeProvider) RunningWorkloads(ctx context.Context) ([]provider.Workload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listingErr != nil {
		return nil, f.listingErr
	}
	listing := make([]provider.Workload, len(f.listing))
	copy(listing, f.listing)
	return listing, nil
}

func (f *fakeProvider) CheckHealth(ctx context.Context, hostname string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.checks[hostname]++
	started := f.checkStarted
	gate := f.healthGate
	result := f.healthDefault
	if queue := f.healthQueue[hostname]; len(queue) > 0 {
		result = queue[0]
		f.healthQueue[hostname] = queue[1:]
	}
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return result
}

// setHealth queues per-check results for a hostname; once the queue
// drains, checks fall back to healthDefault.
func (f *fakeProvider) setHealth(hostname string, results ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthQueue[hostname] = append(f.healthQueue[hostname], results...)
}

// setLaunchResults queues per-call launch outcomes; a nil entry is a
// success. Once drained, calls fall back to launchErr.
func (f *fakeProvider) setLaunchResults(results ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launchQueue = append(f.launchQueue, results...)
}

// setListing replaces the running-workload listing.
func (f *fakeProvider) setListing(workloads ...provider.Workload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listing = workloads
}

func (f *fakeProvider) launchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launches)
}

func (f *fakeProvider) launchCalls() []launchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]launchCall, len(f.launches))
	copy(calls, f.launches)
	return calls
}

func (f *fakeProvider) launchTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.launches))
	for i, call := range f.launches {
		types[i] = call.workloadType
	}
	return types
}

func (f *fakeProvider) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stops)
}

func (f *fakeProvider) stopsFor(workloadID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.stops {
		if id == workloadID {
			n++
		}
	}
	return n
}

func (f *fakeProvider) checkCount(hostname string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[hostname]
}

// sinkRecord is one published event with its subject.
type sinkRecord struct {
	subject string
	event   Event
}

// fakeSink records published lifecycle events, decoded.
type fakeSink struct {
	mu         sync.Mutex
	records    []sinkRecord
	publishErr error
}

func (f *fakeSink) Publish(ctx context.Context, subject string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("fake sink: undecodable payload: %w", err)
	}
	f.records = append(f.records, sinkRecord{subject: subject, event: event})
	return nil
}

// kindsFor returns the event kinds about one workload, in order.
func (f *fakeSink) kindsFor(workloadID string) []EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kinds []EventKind
	for _, record := range f.records {
		if record.event.Workload == workloadID {
			kinds = append(kinds, record.event.Kind)
		}
	}
	return kinds
}

// subjects returns the publish subjects in order.
func (f *fakeSink) subjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := make([]string, len(f.records))
	for i, record := range f.records {
		subjects[i] = record.subject
	}
	return subjects
}

// find returns the first event of the given kind.
func (f *fakeSink) find(kind EventKind) (sinkRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.event.Kind == kind {
			return record, true
		}
	}
	return sinkRecord{}, false
}

// testFleet bundles a supervisor with its scriptable collaborators.
type testFleet struct {
	sup      *Supervisor
	provider *fakeProvider
	clock    *clock.FakeClock
	sink     *fakeSink
}

// newTestFleet builds a supervisor on a fake clock, fake provider, and
// recording sink. Launch pacing is disabled so fills don't need clock
// advances; tests that exercise pacing set it back. mutate, when
// non-nil, adjusts the config before construction.
func newTestFleet(t *testing.T, mutate func(*Config)) *testFleet {
	t.Helper()
	fakeClock := clock.Fake(epoch)
	fakeProv := newFakeProvider()
	sink := &fakeSink{}
	cfg := Config{
		Provider:     fakeProv,
		TargetNodes:  1,
		NodeType:     PolicyAlternate,
		KeepRunning:  true,
		PollInterval: 30 * time.Second,
		RuntimeLease: time.Hour,
		BootDelay:    5 * time.Second,
		CheckTimeout: 5 * time.Second,
		LaunchPacing: 0,
		RunID:        "run-test",
		EventsPrefix: "c3fleet",
		Clock:        fakeClock,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Events:       sink,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	sup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testFleet{
		sup:      sup,
		provider: fakeProv,
		clock:    fakeClock,
		sink:     sink,
	}
}
